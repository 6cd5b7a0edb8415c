package biz

import "fmt"

// 媒体权限名称，与 bundle 绑定
func EditOwnPermission(bundle string) string   { return fmt.Sprintf("edit own %s media", bundle) }
func EditAnyPermission(bundle string) string   { return fmt.Sprintf("edit any %s media", bundle) }
func DeleteOwnPermission(bundle string) string { return fmt.Sprintf("delete own %s media", bundle) }
func DeleteAnyPermission(bundle string) string { return fmt.Sprintf("delete any %s media", bundle) }
func CreatePermission(bundle string) string    { return fmt.Sprintf("create %s media", bundle) }

// AdministerMediaTypesPermission 修改媒体类型配置所需权限
const AdministerMediaTypesPermission = "administer media types"

// HoldsEditPermission 是否持有该 bundle 的任一编辑权限（own 或 any），用于编辑跳转，不检查归属
func HoldsEditPermission(acc Account, bundle string) bool {
	if acc == nil {
		return false
	}
	return acc.HasPermission(EditOwnPermission(bundle)) || acc.HasPermission(EditAnyPermission(bundle))
}

// CanEdit 是否可以编辑媒体，edit own 需要是所有者
func CanEdit(acc Account, m *Media) bool {
	if acc == nil || m == nil {
		return false
	}
	if acc.HasPermission(EditAnyPermission(m.Bundle)) {
		return true
	}
	return isOwner(acc, m) && acc.HasPermission(EditOwnPermission(m.Bundle))
}

// CanDelete 是否可以删除媒体，delete own 需要是所有者
func CanDelete(acc Account, m *Media) bool {
	if acc == nil || m == nil {
		return false
	}
	if acc.HasPermission(DeleteAnyPermission(m.Bundle)) {
		return true
	}
	return isOwner(acc, m) && acc.HasPermission(DeleteOwnPermission(m.Bundle))
}

// CanCreate 是否可以创建该 bundle 的媒体
func CanCreate(acc Account, bundle string) bool {
	return acc != nil && acc.HasPermission(CreatePermission(bundle))
}

func isOwner(acc Account, m *Media) bool {
	return acc.ID() != "" && acc.ID() == m.OwnerID
}
