package docstore

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// decodeFields mirrors the hosted store's DataTo for documents that only exist
// as field maps: firestore tags pick the fields, and RFC 3339 strings become
// timestamps.
func decodeFields(fields map[string]any, v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "firestore",
		Result:     v,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("failed to decode fields: %w", err)
	}
	return nil
}
