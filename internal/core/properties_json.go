package core

import (
	"encoding/json"
	"fmt"
)

// Money serializes as a bare number of cents.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.Cents)
}

// EncodeProperties serializes the variant selected by kind as the open
// structured payload stored in the items collection. The shape is checked
// before anything goes over the wire.
func EncodeProperties(kind Kind, p Properties) ([]byte, error) {
	if err := p.Validate(kind); err != nil {
		return nil, err
	}
	switch kind {
	case KindTransaction:
		return json.Marshal(p.Transaction)
	case KindTask:
		return json.Marshal(p.Task)
	case KindNote:
		return json.Marshal(p.Note)
	case KindGoal:
		return json.Marshal(p.Goal)
	}
	return nil, ErrInvalidKind
}

// DecodeProperties parses a stored payload back into the variant selected by
// kind. Payloads that do not decode into the expected shape are rejected
// rather than passed through, since the store accepts arbitrary JSON.
func DecodeProperties(kind Kind, data []byte) (Properties, error) {
	var p Properties
	switch kind {
	case KindTransaction:
		var tp TransactionProperties
		if err := json.Unmarshal(data, &tp); err != nil {
			return p, fmt.Errorf("decode transaction properties: %w", err)
		}
		p.Transaction = &tp
	case KindTask:
		var tp TaskProperties
		if err := json.Unmarshal(data, &tp); err != nil {
			return p, fmt.Errorf("decode task properties: %w", err)
		}
		p.Task = &tp
	case KindNote:
		var np NoteProperties
		if err := json.Unmarshal(data, &np); err != nil {
			return p, fmt.Errorf("decode note properties: %w", err)
		}
		p.Note = &np
	case KindGoal:
		var gp GoalProperties
		if err := json.Unmarshal(data, &gp); err != nil {
			return p, fmt.Errorf("decode goal properties: %w", err)
		}
		p.Goal = &gp
	default:
		return p, ErrInvalidKind
	}
	if err := p.Validate(kind); err != nil {
		return Properties{}, err
	}
	return p, nil
}
