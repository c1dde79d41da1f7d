/*
Package parley is a minimal chat front-end over an OpenAI-compatible completion API.

A user types a message, the whole conversation (including a fixed system message) is sent
to the model, and the reply is appended to the transcript. parley resolves the API key
fresh on every submission from, in order, a secrets file, a manual per-request override
and the OPENAI_API_KEY environment variable. The key is never stored or logged.

# Architecture

parley follows a hexagonal layout:

  - pkg/domain: sessions, transcripts, settings, errors and lifecycle events.
  - pkg/conversation: the turn state machine (Idle / AwaitingResponse).
  - pkg/credential: the key resolver.
  - pkg/ports: the seams (completion provider, session store, secret store, locker).
  - pkg/adapters: OpenAI (go-openai), HTTP (chi), memory, file and redis stores.
  - pkg/session: per-session locking around load-modify-save.
  - pkg/runner: the terminal chat loop.

# Usage

	eng, err := parley.New(
		parley.WithSecretStore(secretsFile, "OPENAI_API_KEY"),
		parley.WithMetrics(observability.NewMetrics()),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Serve the browser front-end.
	log.Fatal(http.ListenAndServe(":8080", eng.Handler()))

Or drive a single turn directly:

	sess, res, err := eng.Send(ctx, "session-1", "Hello!", "")
	if err != nil {
		fmt.Println(conversation.UserMessage(err))
	}
*/
package parley
