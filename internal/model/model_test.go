package model_test

import (
	"testing"

	"github.com/neo-jack/1LoanManagemen/internal/model"
	"github.com/stretchr/testify/assert"
)

// TestFlowDefinition_Validate 测试流程配置校验
func TestFlowDefinition_Validate(t *testing.T) {
	def := &model.FlowDefinition{FlowName: "助学贷款审批", BusinessType: "student_loan"}
	assert.NoError(t, def.Validate())

	assert.Error(t, (&model.FlowDefinition{BusinessType: "student_loan"}).Validate())
	assert.Error(t, (&model.FlowDefinition{FlowName: "助学贷款审批"}).Validate())
}

// TestFlowNode_Validate 测试节点校验
func TestFlowNode_Validate(t *testing.T) {
	// 角色审核节点
	node := &model.FlowNode{
		NodeName:    "初审",
		NodeType:    model.NodeTypeAudit,
		AuditorType: model.AuditorTypeRole,
		AuditorRole: "auditor",
	}
	assert.NoError(t, node.Validate())

	// 指定用户审核节点
	node = &model.FlowNode{
		NodeName:    "终审",
		NodeType:    model.NodeTypeAudit,
		AuditorType: model.AuditorTypeUser,
		AuditorID:   7,
	}
	assert.NoError(t, node.Validate())

	// 审核节点缺审核人
	node = &model.FlowNode{
		NodeName:    "初审",
		NodeType:    model.NodeTypeAudit,
		AuditorType: model.AuditorTypeRole,
	}
	assert.Error(t, node.Validate())

	node = &model.FlowNode{
		NodeName:    "初审",
		NodeType:    model.NodeTypeAudit,
		AuditorType: model.AuditorTypeUser,
	}
	assert.Error(t, node.Validate())

	// 非审核节点不需要审核人
	assert.NoError(t, (&model.FlowNode{NodeName: "开始", NodeType: model.NodeTypeStart}).Validate())
	assert.NoError(t, (&model.FlowNode{NodeName: "结束", NodeType: model.NodeTypeEnd}).Validate())

	// 未知节点类型
	assert.Error(t, (&model.FlowNode{NodeName: "x", NodeType: "gateway"}).Validate())
}

// TestFlowInstance_Terminal 测试实例终态判断
func TestFlowInstance_Terminal(t *testing.T) {
	inst := &model.FlowInstance{Status: model.InstanceStatusRunning}
	assert.False(t, inst.Terminal())

	for _, status := range []model.InstanceStatus{
		model.InstanceStatusCompleted,
		model.InstanceStatusRejected,
		model.InstanceStatusCancelled,
	} {
		inst.Status = status
		assert.True(t, inst.Terminal())
	}
}

// TestFlowTask_Resolved 测试任务解决判断
func TestFlowTask_Resolved(t *testing.T) {
	task := &model.FlowTask{Status: model.TaskStatusPending}
	assert.False(t, task.Resolved())

	task.Status = model.TaskStatusCancelled
	assert.True(t, task.Resolved())
}

// TestLoanApplication_Validate 测试贷款申请校验
func TestLoanApplication_Validate(t *testing.T) {
	app := &model.LoanApplication{
		ApplicationNo: "LOAN202501010001",
		UserID:        1,
		LoanType:      "student_loan",
		Amount:        5000,
	}
	assert.NoError(t, app.Validate())

	app.Amount = 0
	assert.Error(t, app.Validate())

	app.Amount = 5000
	app.LoanType = ""
	assert.Error(t, app.Validate())
}
