// Package cli implements batikctl, a command-line client of the batikhub
// HTTP API built on cobra.
//
// The server address comes from --server, BATIK_SERVER or the "server" key of
// the --config JSON file; the bearer token likewise from --token, BATIK_TOKEN
// or "token". Flags win over the environment, which wins over the file. login and register print the issued token so
// that it can be exported for later calls. Passwords are read from the
// terminal without echo.
package cli
