package canon

import "github.com/blackrose-blackhat/decisionguard/internal/model"

// ContextMapBytes encodes just a context_map, for the Decision Service's
// size-bound check on ingress (spec.md §4.5 step 2) without re-encoding
// the whole request.
func ContextMapBytes(ctx map[string]model.ContextValue) ([]byte, error) {
	w := &Writer{}
	w.ContextMap(ctx)
	if w.Err() != nil {
		return nil, w.Err()
	}
	return w.Bytes(), nil
}
