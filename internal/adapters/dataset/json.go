package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/vitalrace/internal/domain/model"
)

// DecodeJSON reads {"subject": {"metric": [{"timestamp": t, "value": v}]}}.
func DecodeJSON(r io.Reader) (model.Dataset, error) {
	var ds model.Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset json: %w", err)
	}
	if ds == nil {
		ds = model.Dataset{}
	}
	return ds, nil
}

// EncodeJSON writes ds in the format DecodeJSON reads.
func EncodeJSON(w io.Writer, ds model.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("encode dataset json: %w", err)
	}
	return nil
}
