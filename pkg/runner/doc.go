/*
Package runner implements the terminal chat loop.

It is the bridge between a conversation.Machine and a line-oriented stream: each line
read from the handler is submitted as a turn, and the reply is written back through the
same handler. The handler decides the wire format (plain text or JSON lines).

# Commands

Lines starting with a slash are handled locally and never sent to the model:

	/clear   reset the conversation to its system message
	/usage   show the token usage of the last reply
	/help    list the commands
	/exit    leave (also /quit, or end of input)

# Usage

	r := runner.NewRunner(machine,
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithManualKey(key),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Ctrl+C while a reply is pending cancels that request only; at the prompt it ends the loop.
*/
package runner
