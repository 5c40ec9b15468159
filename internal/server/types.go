package server

import (
	"github.com/gitrdm/natded/pkg/natded"
)

// QueryRequest is the body of the query endpoints.
type QueryRequest struct {
	// Inputs holds one term per relation token, in rule notation.
	Inputs []string `json:"inputs" binding:"required,min=1,dive,required"`
}

// QueryResponse is a successful query result.
type QueryResponse struct {
	RequestID string     `json:"request_id"`
	Relation  string     `json:"relation"`
	Mode      string     `json:"mode"`
	Output    string     `json:"output"`
	Proof     *ProofNode `json:"proof,omitempty"`
	ElapsedMs float64    `json:"elapsed_ms"`
}

// ProofNode is the JSON form of a derivation tree.
type ProofNode struct {
	Rule     string      `json:"rule"`
	Goal     string      `json:"goal"`
	Premises []ProofNode `json:"premises,omitempty"`
}

func proofNode(p *natded.Proof) *ProofNode {
	if p == nil {
		return nil
	}
	n := &ProofNode{Rule: p.Rule.Name(), Goal: p.Goal.String()}
	for _, q := range p.Premises {
		n.Premises = append(n.Premises, *proofNode(q))
	}
	return n
}

// RelationInfo describes a served relation.
type RelationInfo struct {
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Arity  int      `json:"arity"`
	Rules  []string `json:"rules,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Relations int    `json:"relations"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`
	// Code is a stable machine-readable error code.
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	// Candidates lists competing outputs of a nondeterministic query.
	Candidates []string `json:"candidates,omitempty"`
}
