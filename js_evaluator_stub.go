//go:build !js_eval

package props

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = newJSOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
