package gateway

import (
	"bytes"
	"errors"
	"strconv"
)

type OrderStatus uint8

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
	OrderStatusExpired

	orderStatusNewStr             = "new"
	orderStatusPartiallyFilledStr = "partiallyFilled"
	orderStatusFilledStr          = "filled"
	orderStatusCanceledStr        = "canceled"
	orderStatusRejectedStr        = "rejected"
	orderStatusExpiredStr         = "expired"
)

var (
	orderStatusNewByte             = []byte(`"new"`)
	orderStatusPartiallyFilledByte = []byte(`"partiallyFilled"`)
	orderStatusFilledByte          = []byte(`"filled"`)
	orderStatusCanceledByte        = []byte(`"canceled"`)
	orderStatusRejectedByte        = []byte(`"rejected"`)
	orderStatusExpiredByte         = []byte(`"expired"`)
)

// IsTerminal reports whether no further reports will arrive for the order.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return orderStatusNewStr
	case OrderStatusPartiallyFilled:
		return orderStatusPartiallyFilledStr
	case OrderStatusFilled:
		return orderStatusFilledStr
	case OrderStatusCanceled:
		return orderStatusCanceledStr
	case OrderStatusRejected:
		return orderStatusRejectedStr
	case OrderStatusExpired:
		return orderStatusExpiredStr
	}
	panic("invalid order status string conversion " + strconv.Itoa(int(s)))
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	switch s {
	case OrderStatusNew:
		return orderStatusNewByte, nil
	case OrderStatusPartiallyFilled:
		return orderStatusPartiallyFilledByte, nil
	case OrderStatusFilled:
		return orderStatusFilledByte, nil
	case OrderStatusCanceled:
		return orderStatusCanceledByte, nil
	case OrderStatusRejected:
		return orderStatusRejectedByte, nil
	case OrderStatusExpired:
		return orderStatusExpiredByte, nil
	}
	return nil, errors.New("invalid order status json conversion: " + strconv.Itoa(int(s)))
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, orderStatusNewByte):
		*s = OrderStatusNew
	case bytes.Equal(data, orderStatusPartiallyFilledByte):
		*s = OrderStatusPartiallyFilled
	case bytes.Equal(data, orderStatusFilledByte):
		*s = OrderStatusFilled
	case bytes.Equal(data, orderStatusCanceledByte):
		*s = OrderStatusCanceled
	case bytes.Equal(data, orderStatusRejectedByte):
		*s = OrderStatusRejected
	case bytes.Equal(data, orderStatusExpiredByte):
		*s = OrderStatusExpired
	default:
		return errors.New("unsupported order status: " + string(data))
	}
	return nil
}
