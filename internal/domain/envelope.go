package domain

import "encoding/json"

// Action tells the caller what to render for an envelope
type Action string

const (
	ActionDisplayPrice     Action = "display_price"
	ActionAddToCart        Action = "add_to_cart"
	ActionDisplayProducts  Action = "display_products"
	ActionAskConfirmation  Action = "ask_confirmation"
	ActionShowSimilar      Action = "show_similar"
	ActionNotFound         Action = "not_found"
	ActionNoProduct        Action = "no_product"
	ActionInitiateCheckout Action = "initiate_checkout"
	ActionUnknown          Action = "unknown"
	ActionUnavailable      Action = "unavailable"
)

// Payload is the branch-specific body of an Envelope. The set of variants is closed.
type Payload interface {
	Action() Action
	successful() bool
	fill(*envelopeJSON)
}

// DisplayProduct shows a single resolved product with its price
type DisplayProduct struct {
	Product CatalogEntry
}

// AddToCart asks the caller to add Quantity units of Product to the cart
type AddToCart struct {
	Product  CatalogEntry
	Quantity int
}

// DisplayProducts shows a non-empty list of products
type DisplayProducts struct {
	Category string
	Products []CatalogEntry
}

// AskConfirmation asks the user to confirm a mid-confidence suggestion
type AskConfirmation struct {
	Suggestion Suggestion
}

// ShowSimilar lists products similar to an unresolved name. Similar may be empty.
type ShowSimilar struct {
	Similar []CatalogEntry
}

// NotFound reports that a catalog query returned nothing
type NotFound struct {
	Category string
}

// NoProduct reports that the message did not name a product
type NoProduct struct{}

// InitiateCheckout starts the checkout flow
type InitiateCheckout struct{}

// Unclassified reports that the message could not be classified
type Unclassified struct{}

// Unavailable reports that the classifier or catalog could not be reached
type Unavailable struct{}

// Suggestion is a suggested product: the catalog row when found, otherwise only its name
type Suggestion struct {
	Name  string
	Entry *CatalogEntry
}

// MarshalJSON renders the catalog row, or a {"name": ...} placeholder
func (s Suggestion) MarshalJSON() ([]byte, error) {
	if s.Entry != nil {
		return json.Marshal(s.Entry)
	}
	return json.Marshal(map[string]string{"name": s.Name})
}

func (DisplayProduct) Action() Action   { return ActionDisplayPrice }
func (AddToCart) Action() Action        { return ActionAddToCart }
func (DisplayProducts) Action() Action  { return ActionDisplayProducts }
func (AskConfirmation) Action() Action  { return ActionAskConfirmation }
func (ShowSimilar) Action() Action      { return ActionShowSimilar }
func (NotFound) Action() Action         { return ActionNotFound }
func (NoProduct) Action() Action        { return ActionNoProduct }
func (InitiateCheckout) Action() Action { return ActionInitiateCheckout }
func (Unclassified) Action() Action     { return ActionUnknown }
func (Unavailable) Action() Action      { return ActionUnavailable }

func (DisplayProduct) successful() bool    { return true }
func (AddToCart) successful() bool         { return true }
func (p DisplayProducts) successful() bool { return len(p.Products) > 0 }
func (AskConfirmation) successful() bool   { return false }
func (ShowSimilar) successful() bool       { return false }
func (NotFound) successful() bool          { return false }
func (NoProduct) successful() bool         { return false }
func (InitiateCheckout) successful() bool  { return true }
func (Unclassified) successful() bool      { return false }
func (Unavailable) successful() bool       { return false }

func (p DisplayProduct) fill(e *envelopeJSON) { e.Product = &p.Product }

func (p AddToCart) fill(e *envelopeJSON) {
	e.Product = &p.Product
	e.Quantity = p.Quantity
}

func (p DisplayProducts) fill(e *envelopeJSON) {
	e.Products = p.Products
	e.Category = p.Category
}

func (p AskConfirmation) fill(e *envelopeJSON) { e.Suggestion = &p.Suggestion }

func (p ShowSimilar) fill(e *envelopeJSON) {
	similar := p.Similar
	if similar == nil {
		similar = []CatalogEntry{}
	}
	e.Similar = &similar
}

func (p NotFound) fill(e *envelopeJSON)     { e.Category = p.Category }
func (NoProduct) fill(*envelopeJSON)        {}
func (InitiateCheckout) fill(*envelopeJSON) {}
func (Unclassified) fill(*envelopeJSON)     {}
func (Unavailable) fill(*envelopeJSON)      {}

// Envelope is the uniform chat response. Success and action derive from the payload.
type Envelope struct {
	QueryType  QueryType
	Message    string
	Confidence float64
	Payload    Payload
}

// NewEnvelope assembles a fully populated envelope
func NewEnvelope(queryType QueryType, payload Payload, message string, confidence float64) Envelope {
	if payload == nil {
		payload = Unclassified{}
	}
	return Envelope{
		QueryType:  ParseQueryType(string(queryType)),
		Message:    message,
		Confidence: confidence,
		Payload:    payload,
	}
}

// Success reports whether the envelope carries a resolved result
func (e Envelope) Success() bool {
	return e.Payload != nil && e.Payload.successful()
}

// Action returns the render tag for the envelope
func (e Envelope) Action() Action {
	if e.Payload == nil {
		return ActionUnknown
	}
	return e.Payload.Action()
}

type envelopeJSON struct {
	Success    bool            `json:"success"`
	QueryType  QueryType       `json:"query_type"`
	Action     Action          `json:"action"`
	Message    string          `json:"message"`
	Confidence float64         `json:"confidence"`
	Product    *CatalogEntry   `json:"product,omitempty"`
	Products   []CatalogEntry  `json:"products,omitempty"`
	Suggestion *Suggestion     `json:"suggestion,omitempty"`
	Similar    *[]CatalogEntry `json:"similar,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	Category   string          `json:"category,omitempty"`
}

// MarshalJSON flattens the payload into the envelope object
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := envelopeJSON{
		Success:    e.Success(),
		QueryType:  e.QueryType,
		Action:     e.Action(),
		Message:    e.Message,
		Confidence: e.Confidence,
	}
	if e.Payload != nil {
		e.Payload.fill(&out)
	}
	return json.Marshal(out)
}
