// Package main is the entry point for LLMGate.
package main

func main() {
	Execute()
}
