package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/todak-labs/todak/pkg/companion/providers"
)

// ErrReportUnavailable is returned when a growth report cannot be
// generated, either because fewer than AutoReportThreshold turns were
// logged today or because the dialogue collaborator failed. Callers on
// the on-demand path inform the requester; the automatic path skips
// silently.
var ErrReportUnavailable = errors.New("growth report unavailable")

// reportPersona frames the dialogue collaborator as a child-development
// analyst writing for the parent.
const reportPersona = "당신은 아동 심리 전문가입니다. 부모님을 위한 따뜻하고 전문적인 성장 리포트를 작성합니다."

const reportPromptFormat = `다음은 만 4~8세 아이와 AI 심리상담가 토닥의 대화 기록입니다.
이 대화들을 분석하여 부모님을 위한 성장 리포트를 작성해주세요.

대화 기록:
%s

다음 형식으로 리포트를 작성해주세요:

📊 **오늘의 성장 리포트** (%s)

**🎯 주요 관심사**
- 아이가 가장 많이 언급한 주제나 관심사

**💭 감정 상태**
- 아이의 전반적인 감정 상태와 기분 변화

**🌟 성장 포인트**
- 아이가 보여준 긍정적인 변화나 성장

**🤔 부모님께 드리는 조언**
- 아이의 욕구나 필요사항에 대한 구체적인 조언

**📝 특별한 메모**
- 주목할 만한 발언이나 행동

리포트는 따뜻하고 격려하는 톤으로 작성해주세요.`

// ReportBuilder generates growth reports from the daily conversation
// log via the dialogue collaborator.
type ReportBuilder struct {
	dialogue providers.Dialogue
	now      func() time.Time
}

// NewReportBuilder creates a ReportBuilder. A nil clock uses time.Now.
func NewReportBuilder(dialogue providers.Dialogue, now func() time.Time) *ReportBuilder {
	if now == nil {
		now = time.Now
	}
	return &ReportBuilder{dialogue: dialogue, now: now}
}

// Generate builds a report from today's turns. It requires at least
// AutoReportThreshold entries.
func (r *ReportBuilder) Generate(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) < AutoReportThreshold {
		return "", fmt.Errorf("%w: only %d of %d required conversations logged",
			ErrReportUnavailable, len(turns), AutoReportThreshold)
	}

	var log strings.Builder
	for i, turn := range turns {
		fmt.Fprintf(&log, "대화 %d (%s):\n", i+1, turn.Timestamp.Format("15:04"))
		fmt.Fprintf(&log, "아이: %s\n", turn.UserText)
		fmt.Fprintf(&log, "토닥: %s\n\n", turn.AssistantText)
	}

	day := r.now().Format("2006년 01월 02일")
	prompt := fmt.Sprintf(reportPromptFormat, log.String(), day)

	report, err := r.dialogue.Complete(ctx, []providers.Message{
		{Role: providers.RoleSystem, Content: reportPersona},
		{Role: providers.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReportUnavailable, err)
	}
	return report, nil
}
