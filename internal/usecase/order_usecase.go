package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// OrderUsecase はチェックアウトと注文参照のロジック。
// 書き込みは全部TransactionManagerの中で行う。
type OrderUsecase struct {
	tx    repo.TransactionManager
	idGen IDGenerator
}

func NewOrderUsecase(tx repo.TransactionManager, idGen IDGenerator) *OrderUsecase {
	return &OrderUsecase{tx: tx, idGen: idGen}
}

type OrderItemOutput struct {
	ID              int64           `json:"id"`
	ItemID          int64           `json:"item_id"`
	Name            string          `json:"name"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Quantity        int64           `json:"quantity"`
}

type OrderOutput struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Status      string            `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemOutput `json:"items"`
}

// Checkout はカートを注文に変換する。
// 全体が1トランザクション：注文作成・明細作成・在庫減算・カートクリアは
// 全部成功するか全部無かったことになるかのどちらか。
//
// 在庫はここで初めて検証する（カート追加時には見ていない）。
// 商品行はFOR UPDATEでロックしてから在庫を見るので、同じ商品への
// 同時チェックアウトが最後の1個を取り合っても片方しか成功しない。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, idempotencyKey string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	// キー未指定はサーバー側で採番（リトライ保護は効かないが動作は同じ）
	key := strings.TrimSpace(idempotencyKey)
	if key == "" {
		key = u.idGen.NewID()
	}
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			return u.fillOutput(ctx, r, &out, existing, items)
		}

		//カート取得（未作成は空と同じ扱い）
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		//商品行をロックして現在の価格と在庫を読む
		lockedItems := make(map[int64]model.Item, len(cartItems))
		shortages := make([]StockShortage, 0)

		for _, ci := range cartItems {
			it, err := r.Items().FindByIDForUpdate(ctx, ci.ItemID)
			if err == repo.ErrNotFound {
				return ErrItemNotFound
			}
			if err != nil {
				return err
			}

			if it.Stock < ci.Quantity {
				shortages = append(shortages, StockShortage{
					ItemID:    it.ID,
					Name:      it.Name,
					Requested: ci.Quantity,
					Available: it.Stock,
				})
			}
			lockedItems[it.ID] = it
		}

		//1つでも足りなければ注文も在庫減算もしない
		if len(shortages) > 0 {
			return &InsufficientStockError{Shortages: shortages}
		}

		//スナップショット価格で明細と合計を組み立てる
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		total := decimal.Zero

		for _, ci := range cartItems {
			it := lockedItems[ci.ItemID]
			orderItems = append(orderItems, model.OrderItem{
				ItemID:          it.ID,
				Quantity:        ci.Quantity,
				PriceAtPurchase: it.Price,
			})
			total = total.Add(it.Price.Mul(decimal.NewFromInt(ci.Quantity)))
		}

		// 注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			Status:         model.OrderStatusPending,
			TotalAmount:    total,
			IdempotencyKey: key,
		})
		if err != nil {
			//同時に同じキーが入った場合はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return err3
				}
				return u.fillOutput(ctx, r, &out, ex2, items2)
			}
			return err
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		//在庫減算。行ロック済みなので足りないことは無いはずだが、
		//stock >= qty 条件付きUPDATEで二重に守る。
		for _, ci := range cartItems {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.ItemID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				it := lockedItems[ci.ItemID]
				return &InsufficientStockError{Shortages: []StockShortage{{
					ItemID:    it.ID,
					Name:      it.Name,
					Requested: ci.Quantity,
					Available: it.Stock,
				}}}
			}
		}

		//カートを空にする（カート自体は残す）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		created, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		createdItems, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return u.fillOutput(ctx, r, &out, created, createdItems)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ListMyOrders は自分の注文履歴（新しい順）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			var one OrderOutput
			if err := u.fillOutput(ctx, r, &one, o, items); err != nil {
				return err
			}
			outs = append(outs, one)
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		return u.fillOutput(ctx, r, &out, o, items)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelMyOrder はPENDINGの注文をキャンセルして在庫を戻す。
// ステータス更新と在庫戻しは同一トランザクション。
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		//キャンセルできるのはPENDINGのみ
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusConflict, "order cannot be cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		//在庫戻し
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ItemID, it.Quantity); err != nil {
				return err
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}

		o.Status = model.OrderStatusCancelled
		return u.fillOutput(ctx, r, &out, o, items)
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// fillOutput は注文＋明細をレスポンス形に詰める。
// 商品名は現在のカタログから引く（価格は明細のスナップショットのまま）。
func (u *OrderUsecase) fillOutput(ctx context.Context, r repo.TxRepos, out *OrderOutput, o model.Order, items []model.OrderItem) error {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		name := ""
		if catalogItem, err := r.Items().FindByID(ctx, it.ItemID); err == nil {
			name = catalogItem.Name
		}
		outItems = append(outItems, OrderItemOutput{
			ID:              it.ID,
			ItemID:          it.ItemID,
			Name:            name,
			PriceAtPurchase: it.PriceAtPurchase,
			Quantity:        it.Quantity,
		})
	}

	*out = OrderOutput{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       outItems,
	}
	return nil
}
