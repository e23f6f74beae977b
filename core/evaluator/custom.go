package evaluator

import "chainforge/core/types"

func registerCustomOps(r *Registry) {
	r.register(types.OpCustom, evalNoop)
	r.register(types.OpCustomJSON, evalNoop)
	r.register(types.OpCustomBinary, evalNoop)
	r.register(types.OpPow, evalNoop)
	r.register(types.OpPow2, evalNoop)
}

// evalNoop applies operations whose entire effect is authority-checking and
// external side-channel signaling (custom/custom_json/custom_binary) or
// that are accepted for wire compatibility but never change state on this
// chain (pow/pow2, since block production here is entirely witness-based;
// see core/witness). Nothing on the chain records or logs these
// operations beyond the transaction that carries them.
func evalNoop(ctx *Context, operation types.Operation) error { return nil }
