package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/google/uuid"
)

// ゲストカート。tokenの所持だけで操作できる。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemOutput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type CartOutput struct {
	Token  string           `json:"token"`
	Status string           `json:"status"`
	Items  []CartItemOutput `json:"items"`
}

func (u *CartUsecase) Create(ctx context.Context) (CartOutput, error) {
	var out CartOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().Create(ctx, model.Cart{
			Token:  uuid.NewString(),
			Status: model.CartStatusActive,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = CartOutput{Token: cart.Token, Status: string(cart.Status), Items: []CartItemOutput{}}
		return nil
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}

type AddCartItemInput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

func (u *CartUsecase) AddItem(ctx context.Context, token string, in AddCartItemInput) error {
	if strings.TrimSpace(token) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid token")
	}
	if in.ProductID <= 0 || in.Quantity <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid line")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByToken(ctx, token)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//商品とバリアントの存在・整合だけ確認（在庫は注文確定時に見る）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return NewHTTPError(http.StatusBadRequest, "invalid product")
		}

		if in.VariantID != nil {
			if _, err := r.Variants().FindByID(ctx, *in.VariantID, p.ID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusBadRequest, "invalid variant")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else {
			n, err := r.Variants().CountByProductID(ctx, p.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if n > 0 {
				return NewHTTPError(http.StatusBadRequest, "variant required")
			}
		}

		if err := r.CartItems().UpsertLine(ctx, cart.ID, in.ProductID, in.VariantID, in.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func (u *CartUsecase) Get(ctx context.Context, token string) (CartOutput, error) {
	if strings.TrimSpace(token) == "" {
		return CartOutput{}, NewHTTPError(http.StatusBadRequest, "invalid token")
	}

	var out CartOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByToken(ctx, token)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CartOutput{Token: cart.Token, Status: string(cart.Status), Items: make([]CartItemOutput, 0, len(items))}
		for _, it := range items {
			out.Items = append(out.Items, CartItemOutput{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
			})
		}
		return nil
	})

	if err != nil {
		return CartOutput{}, err
	}
	return out, nil
}
