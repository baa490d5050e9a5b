//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-touchsynth/internal/webshell"
)

var (
	shell *webshell.Shell
	funcs []js.Func
)

func main() {
	api := js.Global().Get("Object").New()

	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		s, err := webshell.NewShell(sr)
		if err != nil {
			return err.Error()
		}
		shell = s
		return js.Null()
	}))

	api.Set("modes", export(func([]js.Value) any {
		if shell == nil {
			return js.Global().Get("Array").New(0)
		}
		names := shell.Modes()
		arr := js.Global().Get("Array").New(len(names))
		for i, n := range names {
			arr.SetIndex(i, n)
		}
		return arr
	}))

	api.Set("setMode", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		if err := shell.SetMode(args[0].String()); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("touch", export(func(args []js.Value) any {
		if shell == nil || len(args) < 3 {
			return js.Null()
		}
		shell.Touch(args[0].Float(), args[1].Float(), args[2].String())
		return js.Null()
	}))

	api.Set("release", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		shell.Release(args[0].String())
		return js.Null()
	}))

	api.Set("orientation", export(func(args []js.Value) any {
		if shell == nil || len(args) < 5 {
			return js.Null()
		}
		shell.SetOrientation(
			args[0].Float(),
			args[1].Float(),
			args[2].Float(),
			args[3].Float(),
			args[4].Float(),
		)
		return js.Null()
	}))

	api.Set("setQuantize", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		shell.SetQuantize(args[0].Bool())
		return js.Null()
	}))

	api.Set("setScale", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		shell.SetScale(args[0].String())
		return js.Null()
	}))

	api.Set("setTonic", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		shell.SetTonic(args[0].Int())
		return js.Null()
	}))

	api.Set("setArpeggio", export(func(args []js.Value) any {
		if shell == nil || len(args) < 2 {
			return js.Null()
		}
		shell.SetArpeggio(args[0].Bool(), args[1].Float())
		return js.Null()
	}))

	api.Set("setEnvelope", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Null()
		}
		shell.SetEnvelopeEnabled(args[0].Bool())
		return js.Null()
	}))

	api.Set("render", export(func(args []js.Value) any {
		if shell == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		frames := args[0].Int()
		buf := make([]float32, frames*2)
		shell.Render(buf)
		arr := js.Global().Get("Float32Array").New(len(buf))
		for i := range buf {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	api.Set("melFrame", export(func([]js.Value) any {
		if shell == nil {
			return js.Global().Get("Float32Array").New(0)
		}
		frame := make([]float64, shell.MelBands())
		if !shell.MelFrame(frame) {
			return js.Global().Get("Float32Array").New(0)
		}
		arr := js.Global().Get("Float32Array").New(len(frame))
		for i := range frame {
			arr.SetIndex(i, frame[i])
		}
		return arr
	}))

	api.Set("voiceCount", export(func([]js.Value) any {
		if shell == nil {
			return 0
		}
		return shell.VoiceCount()
	}))

	js.Global().Set("TouchSynth", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}
