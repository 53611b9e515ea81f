// Command stagehand serves the demo scenes over the Bot API webhook or in a
// terminal chat.
package main

func main() {
	Execute()
}
