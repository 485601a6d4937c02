package printer

import "fmt"

// Command is one JSON payload on the printer's control socket. The
// firmware distinguishes "set" commands from "get" queries by method.
type Command struct {
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Params carries the command arguments.
type Params map[string]any

// Pause suspends the running job.
func Pause() Command {
	return Command{Method: "set", Params: Params{"pause": 1}}
}

// Resume continues a paused job.
func Resume() Command {
	return Command{Method: "set", Params: Params{"pause": 0}}
}

// Stop aborts the running job.
func Stop() Command {
	return Command{Method: "set", Params: Params{"stop": 1}}
}

// PrintFile starts printing the given absolute path on the printer.
func PrintFile(path string) Command {
	return Command{Method: "set", Params: Params{"opGcodeFile": "printprt:" + path}}
}

// DeleteFile removes one stored G-code file.
func DeleteFile(path, name string) Command {
	return Command{Method: "set", Params: Params{"opGcodeFile": fmt.Sprintf("deleteprt:%s/%s", path, name)}}
}

// RequestFileList asks the firmware to push its stored file inventory.
func RequestFileList() Command {
	return Command{Method: "get", Params: Params{"reqGcodeFile": 1}}
}
