package touchpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

func TestInferText(t *testing.T) {
	tests := []struct {
		title       string
		description string
		want        string
	}{
		{"充电桩固件升级", "", "Web Platform/End User/Charging Station/Firmware Upgrade"},
		{"充电桩权限管理", "", "Web Admin Console/End User/Charging Station/Access Permissions"},
		{"绑定充电桩", "小程序扫码绑定", "Mini Program/End User/Charging Station/Device Pairing"},
		{"解除绑定充电桩", "", "Web Platform/End User/Charging Station/Device Unbinding"},
		{"Unbind a charger", "", "Web Platform/End User/Charging Station/Device Unbinding"},
		{"管理员查看充电记录", "后台", "Web Admin Console/Administrator/Charging Station/Charging History"},
		{"系统自动发送充电完成提醒", "", "Web Platform/System/Charging Station/Notifications"},
		{"Remote unlock", "open the smart lock from the phone", "Web Platform/End User/Smart Door Lock/Remote Unlock"},
		{"Add product to cart", "on the desktop client", "PC Client/End User/E-commerce/Shopping Cart"},
		{"Reset password", "via H5 page", "Web Platform/End User/Account/Password Reset"},
		{"Request a refund", "", "Web Platform/End User/Payment/Refund"},
		{"View report", "display monthly figures", "Web Platform/End User/Detail View"},
		{"Create a survey", "", "Web Platform/End User/Create Form"},
		{"Welcome", "", "Web Platform/End User/Home"},
		{"Configure retention", "", "Web Admin Console/End User/Settings/Settings"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, InferText(tt.title, tt.description).String())
		})
	}
}

func TestInferDoesNotMatchInsideWords(t *testing.T) {
	l := InferText("Display the summary", "")
	assert.Empty(t, l.Domain, "pay must not match inside display")
	assert.Equal(t, "Detail View", l.Page)
}

func TestInferDeterministic(t *testing.T) {
	s := &storymap.UserStory{Title: "充电桩状态监控", Description: "实时查看"}
	first := Infer(s)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Infer(s))
	}
	assert.Equal(t, "Status Monitor", first.Page)
}

func TestInferLeavesStoryUntouched(t *testing.T) {
	s := storymap.UserStory{ID: "1", Title: "充电桩固件升级", Priority: storymap.PriorityHigh}
	before := s.Clone()
	_ = Infer(&s)
	assert.Equal(t, before, s)
}

func TestUnique(t *testing.T) {
	stories := []storymap.UserStory{
		{Title: "充电桩固件升级"},
		{Title: "Create a survey"},
		{Title: "固件升级 for chargers"},
		{Title: "Create a form"},
	}
	assert.Equal(t, []string{
		"Web Platform/End User/Charging Station/Firmware Upgrade",
		"Web Platform/End User/Create Form",
	}, Unique(stories))
}

func TestLabelStringWithoutDomain(t *testing.T) {
	l := Label{Platform: PlatformPC, Role: RoleSystem, Page: "List"}
	assert.Equal(t, "PC Client/System/List", l.String())
}
