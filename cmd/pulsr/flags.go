package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// SourceFlags override the [monitor] and [source] config sections.
// When more than one of Cmd, URL and PIDFile is set they are tried in that
// order, first token wins.
type SourceFlags struct {
	Interval time.Duration
	Timeout  time.Duration
	Cmd      string
	URL      string
	PIDFile  string
}

type WatchFlags struct {
	SourceFlags
	NoColor bool
}

type ProbeFlags struct {
	SourceFlags
	NoColor bool
	JSON    bool
}

type ServeFlags struct {
	SourceFlags
	Listen        string
	BasePath      string
	MetricsListen string
	// For tests we can set NonBlocking to return right after startup
	NonBlocking bool
}

type StatusFlags struct {
	APIUrl     string
	APITimeout time.Duration
	Insecure   bool
	CACert     string
	JSON       bool
	Username   string
	Password   string
	Token      string
}

type HashPasswordFlags struct {
	Password string
	Cost     int
}
