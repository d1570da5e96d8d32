package gateway

import (
	"bytes"
	"errors"
	"strconv"
)

type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypeMarket
	OrderTypeStopLimit

	orderTypeLimitStr     = "limit"
	orderTypeMarketStr    = "market"
	orderTypeStopLimitStr = "stopLimit"
)

var (
	orderTypeLimitByte     = []byte(`"limit"`)
	orderTypeMarketByte    = []byte(`"market"`)
	orderTypeStopLimitByte = []byte(`"stopLimit"`)
)

func (ot OrderType) String() string {
	switch ot {
	case OrderTypeLimit:
		return orderTypeLimitStr
	case OrderTypeMarket:
		return orderTypeMarketStr
	case OrderTypeStopLimit:
		return orderTypeStopLimitStr
	}
	panic("invalid order type string conversion " + strconv.Itoa(int(ot)))
}

func (ot OrderType) MarshalJSON() ([]byte, error) {
	switch ot {
	case OrderTypeLimit:
		return orderTypeLimitByte, nil
	case OrderTypeMarket:
		return orderTypeMarketByte, nil
	case OrderTypeStopLimit:
		return orderTypeStopLimitByte, nil
	}
	return nil, errors.New("invalid order type json conversion: " + strconv.Itoa(int(ot)))
}

func (ot *OrderType) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, orderTypeLimitByte):
		*ot = OrderTypeLimit
	case bytes.Equal(data, orderTypeMarketByte):
		*ot = OrderTypeMarket
	case bytes.Equal(data, orderTypeStopLimitByte):
		*ot = OrderTypeStopLimit
	default:
		return errors.New("unsupported order type: " + string(data))
	}
	return nil
}
