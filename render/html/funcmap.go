package html

import (
	"fmt"
	"html/template"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatNumber":   formatNumber,
		"animationDelay": animationDelay,
	}
}

// animationDelay staggers message entry animations by 50ms per message.
func animationDelay(index int) string {
	return fmt.Sprintf("%.2fs", float64(index)*0.05)
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
