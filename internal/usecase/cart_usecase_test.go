package usecase_test

import (
	"context"
	"testing"

	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartUsecase(state *memState) *usecase.CartUsecase {
	return usecase.NewCartUsecase(
		&memCartRepo{s: state},
		&memCartItemRepo{s: state},
		&memItemRepo{s: state},
	)
}

func TestGetCart_CreatesEmptyCartLazily(t *testing.T) {
	state := newMemState()
	uc := newCartUsecase(state)

	resp, err := uc.GetCart(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.Equal(decimal.Zero))
	//カートは1ユーザー1つだけ作られる
	require.Len(t, state.carts, 1)

	again, err := uc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, again.ID)
	assert.Len(t, state.carts, 1)
}

func TestAddToCart_SameItemAccumulates(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 100)
	uc := newCartUsecase(state)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 3})
	require.NoError(t, err)

	//明細は1行のまま数量が加算される
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(5), resp.Items[0].Quantity)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("2.50")))
}

func TestAddToCart_UnknownItem(t *testing.T) {
	state := newMemState()
	uc := newCartUsecase(state)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: 999, Quantity: 1})
	assert.ErrorIs(t, err, usecase.ErrItemNotFound)
}

func TestAddToCart_MoreThanStockIsAllowed(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 1)
	uc := newCartUsecase(state)

	//在庫チェックはチェックアウト時。追加は在庫を超えても通る。
	resp, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 5})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(5), resp.Items[0].Quantity)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 10)
	uc := newCartUsecase(state)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 0})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 400, he.Status)
}

func TestUpdateCartItem_ChangesQuantity(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 10)
	uc := newCartUsecase(state)

	added, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := uc.UpdateCartItem(context.Background(), 1, added.Items[0].ID, usecase.UpdateCartItemInput{Quantity: 7})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(7), resp.Items[0].Quantity)
}

func TestUpdateCartItem_OtherUsersLine(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 10)
	uc := newCartUsecase(state)

	added, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 2})
	require.NoError(t, err)

	//他人の明細は「存在しない扱い」
	_, err = uc.UpdateCartItem(context.Background(), 2, added.Items[0].ID, usecase.UpdateCartItemInput{Quantity: 1})
	assert.ErrorIs(t, err, usecase.ErrCartNotFound)
}

func TestDeleteCartItem(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 10)
	banana := state.addItem("バナナ", "0.30", 10)
	uc := newCartUsecase(state)

	added, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: banana.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := uc.DeleteCartItem(context.Background(), 1, added.Items[0].ID)
	require.NoError(t, err)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, banana.ID, resp.Items[0].Item.ID)

	//他人は消せない
	_, err = uc.DeleteCartItem(context.Background(), 2, resp.Items[0].ID)
	assert.ErrorIs(t, err, usecase.ErrCartNotFound)
}

func TestGetCart_TotalUsesCurrentPrices(t *testing.T) {
	state := newMemState()
	apple := state.addItem("りんご", "0.50", 10)
	uc := newCartUsecase(state)

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ItemID: apple.ID, Quantity: 2})
	require.NoError(t, err)

	//カート表示の価格はスナップショットではなく現在価格
	it := state.items[apple.ID]
	it.Price = decimal.RequireFromString("1.00")
	state.items[apple.ID] = it

	resp, err := uc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Items[0].Item.Price.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("2.00")))
}
