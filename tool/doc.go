// Package tool provides the tools graphflow agents can call.
//
// Every tool satisfies langchaingo's tools.Tool (Name, Description, Call).
// Tools that also implement Schema describe their JSON arguments so models
// can call them with structured input:
//
//	calc := tool.AddNumbers{}
//	out, _ := calc.Call(ctx, `{"a": 2, "b": 40}`) // "42"
//
// Available tools:
//   - AddNumbers ("add_numbers"): adds two numbers
//   - Tavily ("tavily_search_results_json"): web search through Tavily
//   - BraveSearch ("brave_search"): web search through Brave
//   - WebFetch ("web_fetch"): page text or markdown of a URL
//   - PhoneLookup ("cic_lookup"): CIC customer lookup by phone number
//
// Search tools return a JSON array of SearchResult. PhoneLookup always
// returns a LookupResult JSON object, even when the upstream service fails,
// so agents can route on its status and nextAction fields.
package tool
