// Package report renders a runner.Report for people and machines: a console
// text report, a JSON document, and a Prometheus text exposition suitable for
// a node-exporter textfile collector.
package report
