// Command sceneforge runs the storyboard HTTP server and provides client
// commands (status, export) that talk to a running instance.
package main
