// Package cli turns command-line arguments into application calls. It owns
// the cobra command tree, layers flags over the environment configuration
// and classifies failures into exit codes through ExitError.
package cli
