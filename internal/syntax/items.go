package syntax

// ItemKind names the shape of an implementation-block item.
type ItemKind string

const (
	KindMethod   ItemKind = "method"
	KindConst    ItemKind = "const"
	KindType     ItemKind = "type"
	KindMacro    ItemKind = "macro"
	KindVerbatim ItemKind = "verbatim"
)

// ImplItem is one item of an implementation block.
//
// The set of implementations is open. The transformer only
// knows the kinds declared in this file; anything else is reported as an
// internal error rather than guessed at.
type ImplItem interface {
	Kind() ItemKind
}

// Attribute is the inner text of an outer attribute: `derive(Clone)` for `#[derive(Clone)]`.
type Attribute string

func (a Attribute) String() string {
	return "#[" + string(a) + "]"
}

// Receiver is the self parameter of a method.
type Receiver int

const (
	ReceiverNone     Receiver = iota // associated function
	ReceiverValue                    // self
	ReceiverMutValue                 // mut self
	ReceiverRef                      // &self
	ReceiverMutRef                   // &mut self
)

func (r Receiver) String() string {
	switch r {
	case ReceiverValue:
		return "self"
	case ReceiverMutValue:
		return "mut self"
	case ReceiverRef:
		return "&self"
	case ReceiverMutRef:
		return "&mut self"
	default:
		return ""
	}
}

// Param is a named method parameter.
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Body is a method body.
type Body interface {
	bodyNode()
}

// RawBody is user-written statements, carried verbatim.
type RawBody struct {
	Text string `json:"text"`
}

// DispatchPolicy selects how a forwarded call is delivered.
type DispatchPolicy int

const (
	// DispatchAwait sends the message and awaits the handler's result.
	DispatchAwait DispatchPolicy = iota
	// DispatchNotify enqueues the message without waiting for the handler;
	// the dispatch still reports disconnection.
	DispatchNotify
)

func (p DispatchPolicy) String() string {
	if p == DispatchNotify {
		return "notify"
	}
	return "await"
}

// ForwardBody replaces a Handle-side method body: the arguments are packaged
// into a message tagged with the method name and dispatched through the
// mailbox address held in Field.
type ForwardBody struct {
	Field   string         `json:"field"`   // handle field holding the address
	Method  string         `json:"method"`  // runtime dispatch method
	Message string         `json:"message"` // method identity
	Args    []string       `json:"args"`    // argument names, in parameter order
	Policy  DispatchPolicy `json:"policy"`
}

func (*RawBody) bodyNode()     {}
func (*ForwardBody) bodyNode() {}

// MethodItem is a method or associated function.
type MethodItem struct {
	Attrs    []Attribute `json:"attrs,omitempty"`
	Vis      Visibility  `json:"vis"`
	Async    bool        `json:"async,omitempty"`
	Name     string      `json:"name"`
	Generics Generics    `json:"generics"`
	Receiver Receiver    `json:"receiver"`
	Params   []Param     `json:"params,omitempty"`
	Return   Type        `json:"return,omitempty"` // nil means no declared return type
	Body     Body        `json:"body"`
	Span     Span        `json:"span"`
}

// ConstItem is an associated constant.
type ConstItem struct {
	Attrs []Attribute `json:"attrs,omitempty"`
	Vis   Visibility  `json:"vis"`
	Name  string      `json:"name"`
	Type  Type        `json:"type"`
	Value string      `json:"value"`
	Span  Span        `json:"span"`
}

// TypeItem is an associated type.
type TypeItem struct {
	Attrs []Attribute `json:"attrs,omitempty"`
	Vis   Visibility  `json:"vis"`
	Name  string      `json:"name"`
	Type  Type        `json:"type"`
	Span  Span        `json:"span"`
}

// MacroItem is a macro invocation in item position.
type MacroItem struct {
	Text string `json:"text"`
	Span Span   `json:"span"`
}

// VerbatimItem is an item the parser could not classify and passes through as text.
type VerbatimItem struct {
	Text string `json:"text"`
	Span Span   `json:"span"`
}

func (*MethodItem) Kind() ItemKind   { return KindMethod }
func (*ConstItem) Kind() ItemKind    { return KindConst }
func (*TypeItem) Kind() ItemKind     { return KindType }
func (*MacroItem) Kind() ItemKind    { return KindMacro }
func (*VerbatimItem) Kind() ItemKind { return KindVerbatim }

// HasAttr reports whether attrs contains a.
func HasAttr(attrs []Attribute, a Attribute) bool {
	for _, x := range attrs {
		if x == a {
			return true
		}
	}
	return false
}
