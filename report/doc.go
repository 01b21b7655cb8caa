// Package report renders analysis results.
//
// Terminal tables use go-pretty, HTML charts use go-echarts and the machine
// readable summary is JSON. CSV exports carry one record per week with a
// header row:
//
//	x,date,week,observed,baseline,excess
//
// where x is days since the epoch and week is the ISO week label (2020W14).
// Save writes every export into a directory.
package report
