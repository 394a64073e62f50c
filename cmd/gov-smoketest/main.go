package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var (
	baseURLFlag = flag.String("base-url", "http://localhost:8080", "AgentGov API base URL")
	tokenFlag   = flag.String("token", "", "Bearer token for the API")
	sessionFlag = flag.String("session", "", "Session id to resolve through")
	agentFlag   = flag.String("agent", "", "Explicit agent id (skips resolution fallback)")
	sourceFlag  = flag.String("source", "workflow_engine", "Trigger source: manual|data_sync|workflow_engine|ai_coordinator")
	actionFlag  = flag.String("action", "generate", "Action name for the trigger context and permission check")
	timeoutFlag = flag.Duration("timeout", 15*time.Second, "Per-request timeout")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	client := &http.Client{Timeout: *timeoutFlag}

	// 1. Resolve an agent.
	resolveResp := struct {
		Agent *struct {
			ID              string  `json:"ID"`
			MaturityLevel   string  `json:"MaturityLevel"`
			ConfidenceScore float64 `json:"ConfidenceScore"`
		} `json:"agent"`
		Resolution struct {
			ResolutionPath []string `json:"resolutionPath"`
		} `json:"resolution"`
	}{}
	err := post(client, "/v1/agents/resolve", map[string]interface{}{
		"sessionId":  *sessionFlag,
		"agentId":    *agentFlag,
		"actionType": *actionFlag,
	}, &resolveResp)
	if err != nil {
		log.Fatalf("resolve: %v", err)
	}
	if resolveResp.Agent == nil {
		log.Fatalf("resolve: no agent returned")
	}
	log.Printf("resolved agent %s (%s, confidence %.2f) via %v",
		resolveResp.Agent.ID, resolveResp.Agent.MaturityLevel,
		resolveResp.Agent.ConfidenceScore, resolveResp.Resolution.ResolutionPath)

	agentID := resolveResp.Agent.ID

	// 2. Permission check for the requested action.
	var check struct {
		Allowed               bool   `json:"allowed"`
		RequiresHumanApproval bool   `json:"requiresHumanApproval"`
		Reason                string `json:"reason"`
	}
	if err := post(client, "/v1/agents/"+agentID+"/can-perform", map[string]interface{}{
		"action": *actionFlag,
	}, &check); err != nil {
		log.Fatalf("can-perform: %v", err)
	}
	log.Printf("can-perform %q: allowed=%v approval=%v (%s)",
		*actionFlag, check.Allowed, check.RequiresHumanApproval, check.Reason)

	// 3. Route a trigger.
	var decision struct {
		RoutingDecision string `json:"routingDecision"`
		Execute         bool   `json:"execute"`
		Reason          string `json:"reason"`
	}
	if err := post(client, "/v1/triggers/intercept", map[string]interface{}{
		"agentId": agentID,
		"source":  *sourceFlag,
		"context": map[string]interface{}{"action": *actionFlag, "type": "smoketest"},
	}, &decision); err != nil {
		log.Fatalf("intercept: %v", err)
	}
	log.Printf("trigger routed to %s execute=%v: %s",
		decision.RoutingDecision, decision.Execute, decision.Reason)

	// 4. Record a low-impact positive outcome.
	var conf struct {
		ConfidenceScore float64 `json:"confidenceScore"`
	}
	positive := true
	if err := post(client, "/v1/agents/"+agentID+"/confidence", map[string]interface{}{
		"positive": &positive,
		"impact":   "low",
	}, &conf); err != nil {
		log.Fatalf("confidence: %v", err)
	}
	log.Printf("confidence now %.4f", conf.ConfidenceScore)
}

func post(client *http.Client, path string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", *baseURLFlag+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if *tokenFlag != "" {
		req.Header.Set("Authorization", "Bearer "+*tokenFlag)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}
