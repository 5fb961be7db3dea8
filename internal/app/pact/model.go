package pact

type Provider struct {
	Name string `json:"name"`
}

type Consumer struct {
	Name string `json:"name"`
}

// Metadata holds the fields shared by both kinds of pact.
type Metadata struct {
	Provider      Provider
	Consumer      Consumer
	Specification Specification
}

func (m Metadata) Meta() Metadata {
	return m
}

// Pact is either a *RequestResponsePact or a *MessagePact.
type Pact interface {
	Meta() Metadata
	isPact()
}

type RequestResponsePact struct {
	Metadata
	Interactions []Interaction
}

func (*RequestResponsePact) isPact() {}

type MessagePact struct {
	Metadata
	Messages []Message
}

func (*MessagePact) isPact() {}

type ProviderState struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"params"`
}

type Request struct {
	Method  Method
	Path    string
	Query   map[string][]string
	Headers map[string]string
	// Body is nil when the pact does not specify one.
	Body *string
}

type Response struct {
	// Status is nil when any status is accepted.
	Status  *int
	Headers map[string]string
	// Body is nil when any body is accepted. An empty string must match exactly.
	Body *string
}

type Interaction struct {
	Description    string
	ProviderStates []ProviderState
	Request        Request
	Response       Response
}

type Message struct {
	Description    string
	ProviderStates []ProviderState
	Contents       *string
	MetaData       map[string]string
}
