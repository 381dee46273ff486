package store

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

func marshalSummary(s RunSummary) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal run summary")
	}
	return string(b), nil
}
