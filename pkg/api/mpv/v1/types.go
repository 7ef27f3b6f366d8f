package v1

// Request is a command sent over the mpv JSON IPC socket.
type Request struct {
	Command []any `json:"command"`
}

func NewRequest(command ...any) Request {
	return Request{
		Command: command,
	}
}

type ResponseSuccess struct {
	Data  []any  `json:"data"`
	Error string `json:"error"`
}

type ResponseFloat64 struct {
	Data  float64 `json:"data"`
	Error string  `json:"error"`
}

type ResponseBool struct {
	Data  bool   `json:"data"`
	Error string `json:"error"`
}
