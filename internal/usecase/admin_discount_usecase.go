package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// 割引コードの管理（作成・一覧・有効/無効）
type AdminDiscountUsecase struct {
	tx repo.TransactionManager
}

func NewAdminDiscountUsecase(tx repo.TransactionManager) *AdminDiscountUsecase {
	return &AdminDiscountUsecase{tx: tx}
}

type CreateDiscountInput struct {
	Code             string     `json:"code"`
	Kind             string     `json:"kind"`
	Type             string     `json:"type"`
	Value            int64      `json:"value"`
	MinSubtotalCents int64      `json:"min_subtotal_cents"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

func (u *AdminDiscountUsecase) Create(ctx context.Context, actor string, in CreateDiscountInput) (model.Discount, error) {
	code := NormalizeCode(in.Code)
	if code == "" || len(code) > 64 {
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}

	switch model.DiscountKind(in.Kind) {
	case model.DiscountKindItem, model.DiscountKindShip:
		// OK
	default:
		//Kindは新規作成では必須。空が許されるのは移行前の既存レコードだけ。
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid kind")
	}

	switch model.DiscountType(in.Type) {
	case model.DiscountTypePercent, model.DiscountTypeShip:
		if in.Value < 0 || in.Value > 100 {
			return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid value")
		}
	case model.DiscountTypeFixed:
		if in.Value <= 0 {
			return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid value")
		}
	default:
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid type")
	}

	if in.MinSubtotalCents < 0 {
		return model.Discount{}, NewHTTPError(http.StatusBadRequest, "invalid min_subtotal_cents")
	}

	var created model.Discount

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Discounts().FindByCode(ctx, code); err == nil {
			return NewHTTPError(http.StatusBadRequest, "code already exists")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		d, err := r.Discounts().Create(ctx, model.Discount{
			Code:             code,
			Kind:             model.DiscountKind(in.Kind),
			Type:             model.DiscountType(in.Type),
			Value:            in.Value,
			MinSubtotalCents: in.MinSubtotalCents,
			ExpiresAt:        in.ExpiresAt,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created = d

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionUpdateDiscount,
			ResourceType: model.AuditResourceDiscount,
			ResourceID:   d.ID,
			AfterJSON:    `{"code":"` + code + `","disabled":false}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return model.Discount{}, err
	}
	return created, nil
}

func (u *AdminDiscountUsecase) List(ctx context.Context, page int, limit int) ([]model.Discount, int64, error) {
	var items []model.Discount
	var total int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		items, total, err = r.Discounts().List(ctx, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// disabled=trueで無効化、falseで再有効化
func (u *AdminDiscountUsecase) SetDisabled(ctx context.Context, actor string, id int64, disabled bool) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		d, err := r.Discounts().FindByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		wasDisabled := d.DisabledAt != nil
		if wasDisabled == disabled {
			//すでに同じ状態なら何もしない
			return nil
		}

		now := time.Now()
		var at *time.Time
		if disabled {
			at = &now
		}
		if err := r.Discounts().SetDisabledAt(ctx, id, at); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON := `{"disabled":false}`
		afterJSON := `{"disabled":true}`
		if !disabled {
			beforeJSON, afterJSON = afterJSON, beforeJSON
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        actor,
			Action:       model.AuditActionUpdateDiscount,
			ResourceType: model.AuditResourceDiscount,
			ResourceID:   id,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}
