// Package app contains the core application logic. It defines the App
// struct, its configuration and the compile, equation, ingest and submit
// workflows, decoupled from any specific entrypoint like a CLI.
package app
