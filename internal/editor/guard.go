package editor

import (
	"context"
	"fmt"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/workflow"
	"github.com/sirupsen/logrus"
)

// Decision 离开有未保存修改的页面时的选择
type Decision int

const (
	// DecisionNone 没有未保存的修改,无需询问
	DecisionNone Decision = iota
	// DecisionSave 先保存为草稿再离开,保存失败则留在原页面
	DecisionSave
	// DecisionDiscard 放弃修改后离开
	DecisionDiscard
	// DecisionCancel 留在原页面
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "none"
	case DecisionSave:
		return "save"
	case DecisionDiscard:
		return "discard"
	case DecisionCancel:
		return "cancel"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Decider 询问用户如何处理未保存的修改
type Decider interface {
	Decide(ctx context.Context, target string) (Decision, error)
}

// DeciderFunc 函数形式的 Decider
type DeciderFunc func(ctx context.Context, target string) (Decision, error)

// Decide 实现 Decider
func (f DeciderFunc) Decide(ctx context.Context, target string) (Decision, error) {
	return f(ctx, target)
}

// Outcome 导航请求的结果
type Outcome struct {
	Target   string
	Decision Decision
	Proceed  bool
	Saved    *workflow.ReportDocument
}

// Guard 导航守卫
type Guard struct {
	session *Session
	decider Decider
	logger  logrus.FieldLogger
}

// NewGuard 创建导航守卫
func NewGuard(session *Session, decider Decider, logger logrus.FieldLogger) *Guard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Guard{session: session, decider: decider, logger: logger}
}

type decisionResult struct {
	decision Decision
	err      error
}

// RequestNavigate 请求离开当前编辑页面
// 有未保存修改时阻塞直到 Decider 给出选择；ctx 取消时放弃导航,不采用默认选择
func (g *Guard) RequestNavigate(ctx context.Context, target string) (Outcome, error) {
	out := Outcome{Target: target}
	if !g.session.Dirty() {
		out.Proceed = true
		return out, nil
	}

	ch := make(chan decisionResult, 1)
	go func() {
		d, err := g.decider.Decide(ctx, target)
		ch <- decisionResult{decision: d, err: err}
	}()

	var res decisionResult
	select {
	case <-ctx.Done():
		g.logger.WithField("target", target).Debug("navigation aborted while waiting for decision")
		return out, ctx.Err()
	case res = <-ch:
	}
	if res.err != nil {
		return out, res.err
	}

	out.Decision = res.decision
	log := g.logger.WithFields(logrus.Fields{"target": target, "decision": res.decision.String()})
	switch res.decision {
	case DecisionSave:
		saved, err := g.session.Save(ctx)
		if err != nil {
			log.WithError(err).Warn("autosave failed, staying on page")
			return out, err
		}
		out.Saved = saved
		out.Proceed = true
	case DecisionDiscard:
		g.session.Discard()
		out.Proceed = true
	case DecisionCancel:
	default:
		return out, fmt.Errorf("unknown navigation decision %s", res.decision)
	}
	log.WithField("proceed", out.Proceed).Debug("navigation decided")
	return out, nil
}
