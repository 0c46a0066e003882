package optimize

// None is an optimizer which computes the likelihood at the starting
// point and exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes initial likelihood only.
func NewNone() *None {
	return &None{
		BaseOptimizer: newBaseOptimizer("None"),
	}
}

// Run computes the likelihood.
func (n *None) Run(iterations int) {
	n.begin()
	l := n.evaluate(n.parameters.Values(nil))
	n.iteration(0, l)
	n.finish("starting point only", true)
}
