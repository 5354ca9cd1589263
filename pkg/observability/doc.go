/*
Package observability turns evaluation and insertion events into Prometheus metrics
and structured log lines.

Both are delivered as domain.EvaluationHooks and can be merged:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	calc := bifrost.New(opener, bifrost.WithHooks(hooks))
*/
package observability
