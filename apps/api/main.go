// Command api serves the Study Planner REST API, runs the reminder worker
// and exposes debug endpoints (expvar, pprof, Prometheus metrics).
package main

func main() {
	startWithDig()
}
