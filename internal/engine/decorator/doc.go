// Package decorator finds ranges of block text that a view renders with a
// custom component, such as hashtags, mentions or links.
//
// A Decorator labels every character of a block with a decoration key, or
// the empty string for undecorated text. The editor state groups equal
// keys into decorated ranges when it builds the block tree leaf cache.
//
// # Composite
//
// Composite runs a list of strategies in order. The first strategy to
// claim a slice of text owns it; later matches overlapping an owned slice
// are ignored. Keys have the form "<strategy index>.<counter>":
//
//	d := decorator.NewComposite(
//	    decorator.RegexStrategy(regexp.MustCompile(`#\w+`)),
//	    decorator.EntityStrategy("LINK"),
//	)
//
// # Lua Strategies
//
// LuaStrategy runs a script in a sandboxed gopher-lua state. The script
// defines a global function strategy(text) returning a list of {start,
// end} pairs as produced by string.find:
//
//	function strategy(text)
//	  local out, init = {}, 1
//	  while true do
//	    local s, e = string.find(text, "@%w+", init)
//	    if not s then break end
//	    table.insert(out, {s, e})
//	    init = e + 1
//	  end
//	  return out
//	end
//
// Results are memoized per block text.
package decorator
