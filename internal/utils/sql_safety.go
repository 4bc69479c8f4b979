package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateSortField 校验排序字段是否在白名单中,防止 SQL 注入
func ValidateSortField(field string, allowed ...string) error {
	if field == "" {
		return errors.New("sort field cannot be empty")
	}
	for _, a := range allowed {
		if field == a {
			return nil
		}
	}
	return fmt.Errorf("sort field %q is not allowed", field)
}

// ValidateSortOrder 验证排序方向
func ValidateSortOrder(order string) error {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder != "ASC" && upperOrder != "DESC" {
		return errors.New("sort order must be ASC or DESC")
	}
	return nil
}

// OrderClause 校验后拼接 ORDER BY 子句
func OrderClause(field, order string, allowed ...string) (string, error) {
	if err := ValidateSortField(field, allowed...); err != nil {
		return "", err
	}
	if err := ValidateSortOrder(order); err != nil {
		return "", err
	}
	return field + " " + strings.ToUpper(strings.TrimSpace(order)), nil
}

// likeEscaper 转义 LIKE 通配符,配合 ESCAPE '\' 使用
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern 构造子串匹配的 LIKE 模式,用户输入中的 % 和 _ 按字面匹配
func ContainsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}
