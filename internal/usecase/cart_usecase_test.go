package usecase_test

import (
	"context"
	"testing"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartUC(r *txReposStub) *usecase.CartUsecase {
	return usecase.NewCartUsecase(&stubTxManager{repos: r})
}

func TestCartCreate(t *testing.T) {
	r := newTxReposStub()
	uc := newCartUC(r)

	r.carts.On("Create", mock.Anything, mock.MatchedBy(func(c model.Cart) bool {
		return c.Token != "" && c.Status == model.CartStatusActive
	})).Return(model.Cart{ID: 1, Token: "tok-1", Status: model.CartStatusActive}, nil)

	out, err := uc.Create(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-1", out.Token)
	assert.Empty(t, out.Items)

	r.carts.AssertExpectations(t)
}

func TestCartAddItem_Success(t *testing.T) {
	r := newTxReposStub()
	uc := newCartUC(r)

	r.carts.On("FindActiveByToken", mock.Anything, "tok-1").
		Return(model.Cart{ID: 9, Token: "tok-1", Status: model.CartStatusActive}, nil)
	r.products.On("FindByID", mock.Anything, int64(1)).
		Return(model.Product{ID: 1, Title: "Mug", PriceCents: 4000, IsActive: true}, nil)
	r.variants.On("CountByProductID", mock.Anything, int64(1)).Return(int64(0), nil)
	r.cartItems.On("UpsertLine", mock.Anything, int64(9), int64(1), (*int64)(nil), int64(2)).Return(nil)

	err := uc.AddItem(context.Background(), "tok-1", usecase.AddCartItemInput{ProductID: 1, Quantity: 2})
	assert.NoError(t, err)

	r.cartItems.AssertExpectations(t)
}

func TestCartAddItem_VariantRequired(t *testing.T) {
	r := newTxReposStub()
	uc := newCartUC(r)

	r.carts.On("FindActiveByToken", mock.Anything, "tok-1").
		Return(model.Cart{ID: 9, Token: "tok-1", Status: model.CartStatusActive}, nil)
	r.products.On("FindByID", mock.Anything, int64(2)).
		Return(model.Product{ID: 2, Title: "Shirt", PriceCents: 3000, IsActive: true}, nil)
	r.variants.On("CountByProductID", mock.Anything, int64(2)).Return(int64(3), nil)

	err := uc.AddItem(context.Background(), "tok-1", usecase.AddCartItemInput{ProductID: 2, Quantity: 1})
	assertErrContains(t, err, "variant required")

	r.cartItems.AssertNotCalled(t, "UpsertLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartAddItem_CartNotFound(t *testing.T) {
	r := newTxReposStub()
	uc := newCartUC(r)

	r.carts.On("FindActiveByToken", mock.Anything, "gone").Return(model.Cart{}, repo.ErrNotFound)

	err := uc.AddItem(context.Background(), "gone", usecase.AddCartItemInput{ProductID: 1, Quantity: 1})
	assertErrContains(t, err, "cart not found")
}

func TestCartAddItem_InvalidLine(t *testing.T) {
	uc := newCartUC(newTxReposStub())

	err := uc.AddItem(context.Background(), "tok-1", usecase.AddCartItemInput{ProductID: 1, Quantity: 0})
	assertErrContains(t, err, "invalid line")
}

func TestCartGet(t *testing.T) {
	r := newTxReposStub()
	uc := newCartUC(r)

	vid := int64(7)
	r.carts.On("FindActiveByToken", mock.Anything, "tok-1").
		Return(model.Cart{ID: 9, Token: "tok-1", Status: model.CartStatusActive}, nil)
	r.cartItems.On("ListByCartID", mock.Anything, int64(9)).Return([]model.CartItem{
		{CartID: 9, ProductID: 1, Quantity: 2},
		{CartID: 9, ProductID: 2, VariantID: &vid, Quantity: 1},
	}, nil)

	out, err := uc.Get(context.Background(), "tok-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(out.Items))
	assert.Equal(t, &vid, out.Items[1].VariantID)
}
