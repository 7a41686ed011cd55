// Code generated by templ - DO NOT EDIT.

// templ: version: v0.3.977
package web

//lint:file-ignore SA4006 This context is only used if a nested component is present.

import "github.com/a-h/templ"
import templruntime "github.com/a-h/templ/runtime"

// Page renders the single game page. The script speaks the /ws protocol.
func Page(title string) templ.Component {
	return templruntime.GeneratedTemplate(func(templ_7745c5c3_Input templruntime.GeneratedComponentInput) (templ_7745c5c3_Err error) {
		templ_7745c5c3_W, ctx := templ_7745c5c3_Input.Writer, templ_7745c5c3_Input.Context
		if templ_7745c5c3_CtxErr := ctx.Err(); templ_7745c5c3_CtxErr != nil {
			return templ_7745c5c3_CtxErr
		}
		templ_7745c5c3_Buffer, templ_7745c5c3_IsBuffer := templruntime.GetBuffer(templ_7745c5c3_W)
		if !templ_7745c5c3_IsBuffer {
			defer func() {
				templ_7745c5c3_BufErr := templruntime.ReleaseBuffer(templ_7745c5c3_Buffer)
				if templ_7745c5c3_Err == nil {
					templ_7745c5c3_Err = templ_7745c5c3_BufErr
				}
			}()
		}
		ctx = templ.InitializeContext(ctx)
		templ_7745c5c3_Var1 := templ.GetChildren(ctx)
		if templ_7745c5c3_Var1 == nil {
			templ_7745c5c3_Var1 = templ.NopComponent
		}
		ctx = templ.ClearChildren(ctx)
		templ_7745c5c3_Err = templruntime.WriteString(templ_7745c5c3_Buffer, 1, "<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>")
		if templ_7745c5c3_Err != nil {
			return templ_7745c5c3_Err
		}
		var templ_7745c5c3_Var2 string
		templ_7745c5c3_Var2, templ_7745c5c3_Err = templ.JoinStringErrs(title)
		if templ_7745c5c3_Err != nil {
			return templ.Error{Err: templ_7745c5c3_Err, FileName: `internal/web/page.templ`, Line: 10, Col: 21}
		}
		_, templ_7745c5c3_Err = templ_7745c5c3_Buffer.WriteString(templ.EscapeString(templ_7745c5c3_Var2))
		if templ_7745c5c3_Err != nil {
			return templ_7745c5c3_Err
		}
		templ_7745c5c3_Err = templruntime.WriteString(templ_7745c5c3_Buffer, 2, "</title><style>\nbody { font-family: monospace; background: #111; color: #ddd; display: flex; flex-direction: column; align-items: center; }\n.board { display: grid; grid-template-columns: repeat(3, 80px); gap: 4px; margin: 16px 0; }\n.cell { width: 80px; height: 80px; background: #222; font-size: 48px; display: flex; align-items: center; justify-content: center; cursor: pointer; }\n.cell.win { background: #264; }\n.btn { background: #333; color: #ddd; border: 1px solid #555; padding: 6px 14px; cursor: pointer; }\n</style></head><body><h1>")
		if templ_7745c5c3_Err != nil {
			return templ_7745c5c3_Err
		}
		var templ_7745c5c3_Var3 string
		templ_7745c5c3_Var3, templ_7745c5c3_Err = templ.JoinStringErrs(title)
		if templ_7745c5c3_Err != nil {
			return templ.Error{Err: templ_7745c5c3_Err, FileName: `internal/web/page.templ`, Line: 20, Col: 18}
		}
		_, templ_7745c5c3_Err = templ_7745c5c3_Buffer.WriteString(templ.EscapeString(templ_7745c5c3_Var3))
		if templ_7745c5c3_Err != nil {
			return templ_7745c5c3_Err
		}
		templ_7745c5c3_Err = templruntime.WriteString(templ_7745c5c3_Buffer, 3, "</h1><div class=\"status\" id=\"status\">&gt; connecting...</div><div class=\"board\" id=\"board\"></div><button class=\"btn\" id=\"join\">[find game]</button><div id=\"users\">online: 0</div><div id=\"ipinfo\"></div><script>\n(function () {\n  var proto = location.protocol === \"https:\" ? \"wss://\" : \"ws://\";\n  var ws = new WebSocket(proto + location.host + \"/ws\");\n  var state = { gameId: null, symbol: null, myTurn: false };\n  var boardEl = document.getElementById(\"board\");\n  var statusEl = document.getElementById(\"status\");\n\n  function status(text) { statusEl.textContent = \"> \" + text; }\n  function send(type, data) { ws.send(JSON.stringify({ type: type, data: data })); }\n\n  function render(board, combo) {\n    boardEl.innerHTML = \"\";\n    (board || [\"\", \"\", \"\", \"\", \"\", \"\", \"\", \"\", \"\"]).forEach(function (cell, i) {\n      var el = document.createElement(\"div\");\n      el.className = \"cell\" + (combo && combo.indexOf(i) >= 0 ? \" win\" : \"\");\n      el.textContent = cell;\n      el.onclick = function () {\n        if (state.gameId && state.myTurn && cell === \"\") {\n          send(\"make_move\", { game_id: state.gameId, position: i });\n        }\n      };\n      boardEl.appendChild(el);\n    });\n  }\n\n  var handlers = {\n    user_count: function (d) { document.getElementById(\"users\").textContent = \"online: \" + d.count; },\n    waiting_for_opponent: function () { status(\"waiting for opponent...\"); },\n    game_started: function (d) {\n      state = { gameId: d.game_id, symbol: d.symbol, myTurn: d.your_turn };\n      render(d.board);\n      status(\"you are \" + d.symbol + (d.your_turn ? \", your turn\" : \", opponent's turn\"));\n    },\n    move_made: function (d) {\n      state.myTurn = d.symbol !== state.symbol;\n      render(d.board);\n      status(state.myTurn ? \"your turn\" : \"opponent's turn\");\n    },\n    game_over: function (d) {\n      render(d.board, d.combo);\n      var won = d.winner && d.combo && d.board[d.combo[0]] === state.symbol;\n      status(d.winner ? (won ? \"you win\" : \"you lose\") : \"draw\");\n      state.gameId = null;\n    },\n    game_ended: function (d) { status(d.message); state.gameId = null; },\n    trigger_fire: function () { document.body.animate([{ background: \"#520\" }, { background: \"#111\" }], 600); }\n  };\n\n  ws.onopen = function () { status(\"connected\"); render(); };\n  ws.onclose = function () { status(\"disconnected\"); };\n  ws.onmessage = function (e) {\n    var msg = JSON.parse(e.data);\n    if (handlers[msg.type]) { handlers[msg.type](msg.data || {}); }\n  };\n  document.getElementById(\"join\").onclick = function () { send(\"join_game\"); };\n\n  fetch(\"/get_ip_info\").then(function (r) { return r.json(); }).then(function (d) {\n    document.getElementById(\"ipinfo\").textContent = d.error ? d.error : d.ip + \" \" + d.city + \", \" + d.country;\n  });\n})();\n</script></body></html>")
		if templ_7745c5c3_Err != nil {
			return templ_7745c5c3_Err
		}
		return nil
	})
}

var _ = templruntime.GeneratedTemplate
