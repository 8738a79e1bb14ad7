package repository

import (
	"errors"

	"github.com/neo-jack/1LoanManagemen/internal/model"
	"gorm.io/gorm"
)

// NodeRepository 流程节点仓储接口
// 节点列表整体替换保存,后继节点按 sort_order 在读取时计算
type NodeRepository interface {
	ReplaceAll(tx *gorm.DB, flowID uint, nodes []*model.FlowNode) error
	FindByFlowID(flowID uint) ([]*model.FlowNode, error)
	FindByID(id uint) (*model.FlowNode, error)
	FirstAuditNode(flowID uint) (*model.FlowNode, error)
	Successor(node *model.FlowNode) (*model.FlowNode, error)
}

// nodeRepository 流程节点仓储实现
type nodeRepository struct {
	db *gorm.DB
}

// NewNodeRepository 创建流程节点仓储
func NewNodeRepository(db *gorm.DB) NodeRepository {
	return &nodeRepository{db: db}
}

// ReplaceAll 整体替换指定流程的节点集合
// 删除旧节点后按给定顺序重建,sort_order 重新编号为 0..n-1
func (r *nodeRepository) ReplaceAll(tx *gorm.DB, flowID uint, nodes []*model.FlowNode) error {
	if err := tx.Where("flow_id = ?", flowID).Delete(&model.FlowNode{}).Error; err != nil {
		return err
	}
	for i, node := range nodes {
		node.ID = 0
		node.FlowID = flowID
		node.SortOrder = i
		if err := tx.Create(node).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByFlowID 查找流程的全部节点,按顺序返回
func (r *nodeRepository) FindByFlowID(flowID uint) ([]*model.FlowNode, error) {
	var nodes []*model.FlowNode
	err := r.db.Where("flow_id = ?", flowID).Order("sort_order ASC").Find(&nodes).Error
	return nodes, err
}

// FindByID 根据 ID 查找节点
func (r *nodeRepository) FindByID(id uint) (*model.FlowNode, error) {
	var node model.FlowNode
	if err := r.db.Where("id = ?", id).First(&node).Error; err != nil {
		return nil, err
	}
	return &node, nil
}

// FirstAuditNode 查找流程中顺序最靠前的审核节点
// 不存在时返回 gorm.ErrRecordNotFound,由上层转换为配置错误
func (r *nodeRepository) FirstAuditNode(flowID uint) (*model.FlowNode, error) {
	var node model.FlowNode
	err := r.db.Where("flow_id = ? AND node_type = ?", flowID, model.NodeTypeAudit).
		Order("sort_order ASC").First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Successor 查找节点在链上的后继节点
// 链尾节点没有后继,返回 (nil, nil)
func (r *nodeRepository) Successor(node *model.FlowNode) (*model.FlowNode, error) {
	var next model.FlowNode
	err := r.db.Where("flow_id = ? AND sort_order > ?", node.FlowID, node.SortOrder).
		Order("sort_order ASC").First(&next).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &next, nil
}
