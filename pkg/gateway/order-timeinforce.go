package gateway

import (
	"bytes"
	"errors"
	"strconv"
)

type TimeInForce uint8

const (
	TimeInForceGTC TimeInForce = iota
	TimeInForceIOC
	TimeInForceFOK
	TimeInForceDay

	timeInForceGTCStr = "GTC"
	timeInForceIOCStr = "IOC"
	timeInForceFOKStr = "FOK"
	timeInForceDayStr = "Day"
)

var (
	timeInForceGTCByte = []byte(`"GTC"`)
	timeInForceIOCByte = []byte(`"IOC"`)
	timeInForceFOKByte = []byte(`"FOK"`)
	timeInForceDayByte = []byte(`"Day"`)
)

func (tif TimeInForce) String() string {
	switch tif {
	case TimeInForceGTC:
		return timeInForceGTCStr
	case TimeInForceIOC:
		return timeInForceIOCStr
	case TimeInForceFOK:
		return timeInForceFOKStr
	case TimeInForceDay:
		return timeInForceDayStr
	}
	panic("invalid time in force string conversion " + strconv.Itoa(int(tif)))
}

func (tif TimeInForce) MarshalJSON() ([]byte, error) {
	switch tif {
	case TimeInForceGTC:
		return timeInForceGTCByte, nil
	case TimeInForceIOC:
		return timeInForceIOCByte, nil
	case TimeInForceFOK:
		return timeInForceFOKByte, nil
	case TimeInForceDay:
		return timeInForceDayByte, nil
	}
	return nil, errors.New("invalid time in force json conversion: " + strconv.Itoa(int(tif)))
}

func (tif *TimeInForce) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, timeInForceGTCByte):
		*tif = TimeInForceGTC
	case bytes.Equal(data, timeInForceIOCByte):
		*tif = TimeInForceIOC
	case bytes.Equal(data, timeInForceFOKByte):
		*tif = TimeInForceFOK
	case bytes.Equal(data, timeInForceDayByte):
		*tif = TimeInForceDay
	default:
		return errors.New("unsupported time in force: " + string(data))
	}
	return nil
}
