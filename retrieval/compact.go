// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/core"
)

const summarizePrompt = "Summarize the following conversation in a few sentences, " +
	"keeping the facts and decisions that matter for continuing it:\n\n"

// compactHistory converts stored messages into prompt turns, keeping the
// latest exchanges verbatim. When the verbatim history would blow the token
// budget, or force is set because the session is already over budget, older
// turns are collapsed into an LLM-written summary; if the summarizer itself
// fails, the older turns are simply dropped.
func (e *Engine) compactHistory(ctx context.Context, messages []*core.ChatMessage, force bool) []ai.ChatTurn {
	turns := toTurns(messages)

	keep := e.keepTurns * 2 // one exchange is a user and an ai turn
	if len(turns) <= keep {
		return turns
	}

	recent := turns[len(turns)-keep:]
	older := turns[:len(turns)-keep]

	if !force && e.estimateTurns(turns) <= e.tokenBudget {
		return turns
	}

	summary, err := e.summarize(ctx, older)
	if err != nil {
		e.logger.Warn("history summarization failed, dropping older turns",
			"dropped", len(older), "error", err)
		return recent
	}

	compacted := make([]ai.ChatTurn, 0, len(recent)+1)
	compacted = append(compacted, ai.SystemTurn("Summary of the earlier conversation: "+summary))
	compacted = append(compacted, recent...)
	return compacted
}

func (e *Engine) summarize(ctx context.Context, turns []ai.ChatTurn) (string, error) {
	var sb strings.Builder
	sb.WriteString(summarizePrompt)
	for _, turn := range turns {
		sb.WriteString(string(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")
	}
	return e.provider.Generator().Generate(ctx, []ai.ChatTurn{ai.HumanTurn(sb.String())})
}

func (e *Engine) estimateTurns(turns []ai.ChatTurn) int {
	var total int
	for _, turn := range turns {
		total += e.estimator.estimate(turn.Content)
	}
	return total
}

func toTurns(messages []*core.ChatMessage) []ai.ChatTurn {
	turns := make([]ai.ChatTurn, 0, len(messages))
	for _, msg := range messages {
		switch msg.Type {
		case core.MessageUser:
			turns = append(turns, ai.HumanTurn(msg.Content))
		case core.MessageAI:
			turns = append(turns, ai.AITurn(msg.Content))
		case core.MessageSystem:
			turns = append(turns, ai.SystemTurn(msg.Content))
		}
	}
	return turns
}

// tokenEstimator counts tokens with the cl100k_base encoding when the BPE
// tables are available, and falls back to a length heuristic when they are
// not (offline test environments).
type tokenEstimator struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newTokenEstimator() *tokenEstimator {
	return &tokenEstimator{}
}

func (t *tokenEstimator) estimate(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			t.enc = enc
		}
	})

	if t.enc != nil {
		return len(t.enc.Encode(text, nil, nil))
	}
	// roughly four characters per token for English text
	return (len(text) + 3) / 4
}
