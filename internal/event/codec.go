package event

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fenrir/internal/common"
)

// Encode and Decode serialize events to and from a fixed-field binary wire format: a
// small integer kind tag, then the common header fields, then
// kind-specific fields in a fixed order, with variable-length strings
// length-prefixed. Decode(Encode(e)) == e for every kind.
var (
	ErrTruncated   = errors.New("event: truncated wire record")
	ErrUnknownKind = errors.New("event: unknown wire kind tag")
)

const headerLen = 1 + 8 + 8 + 1 + 8 // kind + timestamp + eventID + hasTrigger + triggerID

// Encode serializes e to its wire form.
func Encode(e Event) ([]byte, error) {
	var buf []byte
	buf = append(buf, byte(e.Kind()))
	buf = appendUint64(buf, uint64(e.Timestamp))
	buf = appendUint64(buf, e.EventID)
	if e.TriggerEventID != nil {
		buf = append(buf, 1)
		buf = appendUint64(buf, *e.TriggerEventID)
	} else {
		buf = append(buf, 0)
		buf = appendUint64(buf, 0)
	}

	body, err := encodeBody(e.Payload)
	if err != nil {
		return nil, err
	}
	return append(buf, body...), nil
}

// Decode parses a wire record previously produced by Encode.
func Decode(msg []byte) (Event, error) {
	if len(msg) < headerLen {
		return Event{}, ErrTruncated
	}
	kind := Kind(msg[0])
	ts := int64(binary.BigEndian.Uint64(msg[1:9]))
	id := binary.BigEndian.Uint64(msg[9:17])
	hasTrigger := msg[17] != 0
	triggerVal := binary.BigEndian.Uint64(msg[18:26])

	var trigger *uint64
	if hasTrigger {
		t := triggerVal
		trigger = &t
	}

	payload, err := decodeBody(kind, msg[headerLen:])
	if err != nil {
		return Event{}, err
	}

	return Event{EventID: id, Timestamp: ts, TriggerEventID: trigger, Payload: payload}, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readString(msg []byte) (string, []byte, error) {
	if len(msg) < 2 {
		return "", nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	if len(msg) < n {
		return "", nil, ErrTruncated
	}
	return string(msg[:n]), msg[n:], nil
}

func readUint64(msg []byte) (uint64, []byte, error) {
	if len(msg) < 8 {
		return 0, nil, ErrTruncated
	}
	return binary.BigEndian.Uint64(msg[:8]), msg[8:], nil
}

func encodeBody(p Payload) ([]byte, error) {
	var buf []byte
	switch v := p.(type) {
	case OrderAddedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
	case OrderRemovedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
	case OrderModifiedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.OldQty)
		buf = appendUint64(buf, v.NewQty)
	case OrderExecutedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
	case OrderCanceledPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
	case OrderRejectedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
		buf = appendString(buf, v.Reason)
	case TransactionPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.Quantity)
		buf = appendString(buf, v.Price)
		buf = appendUint64(buf, v.BuyerID)
		buf = appendUint64(buf, v.SellerID)
		buf = appendUint64(buf, v.BuyOrderID)
		buf = appendUint64(buf, v.SellOrderID)
	case TickerAddedPayload:
		buf = appendString(buf, v.Ticker)
	case TickerRemovedPayload:
		buf = appendString(buf, v.Ticker)
	case AgentAddedPayload:
		buf = appendUint64(buf, v.AgentID)
	case AgentRemovedPayload:
		buf = appendUint64(buf, v.AgentID)
	case MarketOrderUnfilledPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
		buf = appendUint64(buf, v.ResidualQty)
	case OrderExpiredPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
	case OrderSubmittedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
		buf = append(buf, byte(v.Side))
		buf = append(buf, byte(v.Kind))
	case CancelRequestedPayload:
		buf = appendString(buf, v.Ticker)
		buf = appendUint64(buf, v.OrderID)
		buf = appendUint64(buf, v.AgentID)
	default:
		return nil, fmt.Errorf("event: no wire encoding registered for payload %T", p)
	}
	return buf, nil
}

func decodeBody(kind Kind, msg []byte) (Payload, error) {
	switch kind {
	case KindOrderAdded:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderAddedPayload{Ticker: ticker, OrderID: orderID}, nil

	case KindOrderRemoved:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderRemovedPayload{Ticker: ticker, OrderID: orderID}, nil

	case KindOrderModified:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		oldQty, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		newQty, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderModifiedPayload{Ticker: ticker, OrderID: orderID, OldQty: oldQty, NewQty: newQty}, nil

	case KindOrderExecuted:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderExecutedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID}, nil

	case KindOrderCanceled:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderCanceledPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID}, nil

	case KindOrderRejected:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		reason, _, err := readString(msg)
		if err != nil {
			return nil, err
		}
		return OrderRejectedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID, Reason: reason}, nil

	case KindTransaction:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		qty, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		price, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		buyerID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		sellerID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		buyOrderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		sellOrderID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return TransactionPayload{
			Ticker: ticker, Quantity: qty, Price: price,
			BuyerID: buyerID, SellerID: sellerID,
			BuyOrderID: buyOrderID, SellOrderID: sellOrderID,
		}, nil

	case KindTickerAdded:
		ticker, _, err := readString(msg)
		if err != nil {
			return nil, err
		}
		return TickerAddedPayload{Ticker: ticker}, nil

	case KindTickerRemoved:
		ticker, _, err := readString(msg)
		if err != nil {
			return nil, err
		}
		return TickerRemovedPayload{Ticker: ticker}, nil

	case KindAgentAdded:
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return AgentAddedPayload{AgentID: agentID}, nil

	case KindAgentRemoved:
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return AgentRemovedPayload{AgentID: agentID}, nil

	case KindMarketOrderUnfilled:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		residual, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return MarketOrderUnfilledPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID, ResidualQty: residual}, nil

	case KindOrderExpired:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return OrderExpiredPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID}, nil

	case KindOrderSubmitted:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		if len(msg) < 2 {
			return nil, ErrTruncated
		}
		return OrderSubmittedPayload{
			Ticker: ticker, OrderID: orderID, AgentID: agentID,
			Side: common.Side(msg[0]), Kind: common.OrderKind(msg[1]),
		}, nil

	case KindCancelRequested:
		ticker, msg, err := readString(msg)
		if err != nil {
			return nil, err
		}
		orderID, msg, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		agentID, _, err := readUint64(msg)
		if err != nil {
			return nil, err
		}
		return CancelRequestedPayload{Ticker: ticker, OrderID: orderID, AgentID: agentID}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
