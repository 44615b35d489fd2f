/*
Package dnsbench contains functionality for measuring DNS resolution latency of plain DNS, DoT, DoH and DoQ
resolvers against a list of domains. The sweep is represented by Benchmark struct that is used to set up the
resolvers, domains and probing policy and then execute the sweep using Benchmark.Run. Each execution of
Benchmark.Run returns slice of ResultStats, where each element of the slice represents results of a single
resolver method, in the order the methods were enumerated.
*/
package dnsbench
