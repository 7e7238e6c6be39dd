// Package prebuilt provides ready-to-use agent graphs built on the graph
// package.
//
// # ReAct Agent
//
// CreateReactAgent compiles a graph in which an "agent" node asks a chat
// model what to do next and a "tools" node executes the tool calls the model
// made. The two alternate until the model answers without calling a tool:
//
//	START -> agent -> (tools -> agent)* -> END
//
// Conversation history lives in the "messages" field and grows through an
// append reducer, so each node only returns the messages it adds.
//
//	agent, err := prebuilt.CreateReactAgent(model,
//		[]tools.Tool{tool.AddNumbers{}, lookup},
//		prebuilt.WithSystemPrompt("You are a helpful assistant."),
//		prebuilt.WithMaxIterations(5),
//	)
//	if err != nil {
//		return err
//	}
//
//	out, err := agent.Invoke(ctx, prebuilt.Messages(
//		llms.TextParts(llms.ChatMessageTypeHuman, "is 254712345678 registered?"),
//	))
//	fmt.Println(prebuilt.FinalAnswer(out))
//
// A tool that fails or does not exist does not fail the run: the error text
// is returned to the model as the tool response so it can recover.
package prebuilt
