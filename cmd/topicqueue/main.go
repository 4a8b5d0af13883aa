// Command topicqueue deploys the topic queue stack and verifies it end to end.
//
// Usage:
//
//	topicqueue deploy            Create or update the stack and print its outputs
//	topicqueue publish --probe   Publish a message to the deployed topic
//	topicqueue logs              Print the handler's log events
//	topicqueue verify            Deploy, publish, assert the handler ran, destroy
//	topicqueue destroy           Delete the stack
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
