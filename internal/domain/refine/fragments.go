package refine

import (
	"fmt"
	"time"

	"github.com/Strob0t/StoryForge/internal/domain/keyword"
	"github.com/Strob0t/StoryForge/internal/domain/storymap"
)

// taskSpec is the compact form of a template user story. Acceptance criteria
// are derived from the actor, action and outcome.
type taskSpec struct {
	title    string
	actor    string
	action   string
	outcome  string
	priority storymap.Priority
	effort   string
	reqs     []storymap.SupportingRequirement
}

func (ts taskSpec) story(now time.Time) storymap.UserStory {
	return storymap.UserStory{
		ID:          storymap.NewID(),
		Title:       ts.title,
		Description: fmt.Sprintf("As a %s, I want to %s so that %s", ts.actor, ts.action, ts.outcome),
		Type:        storymap.TypeTask,
		Priority:    ts.priority,
		Status:      storymap.StatusTodo,
		AcceptanceCriteria: []string{
			fmt.Sprintf("Given a signed-in %s, when they %s, then %s", ts.actor, ts.action, ts.outcome),
			fmt.Sprintf("Given invalid input, when the %s tries to %s, then a clear error message is shown", ts.actor, ts.action),
			"Given the action succeeded, when the page is reloaded, then the change is still visible",
		},
		EstimatedEffort:        ts.effort,
		SupportingRequirements: cloneReqs(ts.reqs),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func cloneReqs(reqs []storymap.SupportingRequirement) []storymap.SupportingRequirement {
	if len(reqs) == 0 {
		return nil
	}
	return append([]storymap.SupportingRequirement{}, reqs...)
}

type featureSpec struct {
	title       string
	description string
	tasks       []taskSpec
}

func (fs featureSpec) feature(now time.Time) storymap.Feature {
	f := storymap.Feature{
		ID:          storymap.NewID(),
		Title:       fs.title,
		Description: fs.description,
		Tasks:       make([]storymap.UserStory, 0, len(fs.tasks)),
	}
	for _, ts := range fs.tasks {
		f.Tasks = append(f.Tasks, ts.story(now))
	}
	return f
}

type moduleSpec struct {
	words       keyword.Set
	title       string
	description string
	feature     featureSpec
}

func (ms moduleSpec) epic(now time.Time) storymap.Epic {
	return storymap.Epic{
		ID:          storymap.NewID(),
		Title:       ms.title,
		Description: ms.description,
		Features:    []storymap.Feature{ms.feature.feature(now)},
	}
}

// addModules is the lookup used by the add heuristic. The last entry has no
// keywords and always matches.
var addModules = []moduleSpec{
	{
		words:       keyword.New("设备", "硬件", "终端", "device", "devices", "hardware", "iot"),
		title:       "Device Management",
		description: "Register, monitor and maintain connected devices",
		feature: featureSpec{
			title:       "Device Onboarding",
			description: "Bring new devices under management",
			tasks: []taskSpec{
				{title: "Register a device", actor: "operator", action: "register a device by its serial number", outcome: "it appears in the device list", priority: storymap.PriorityHigh, effort: "3 days"},
				{title: "Monitor device status", actor: "operator", action: "see whether each device is online", outcome: "faults are spotted early", priority: storymap.PriorityMedium, effort: "2 days"},
			},
		},
	},
	{
		words:       keyword.New("用户", "账号", "账户", "会员", "user", "users", "account", "accounts", "member", "members", "profile"),
		title:       "User Management",
		description: "Manage user accounts and profiles",
		feature: featureSpec{
			title:       "Account Administration",
			description: "Create and maintain user accounts",
			tasks: []taskSpec{
				{title: "Create a user account", actor: "administrator", action: "create an account for a new user", outcome: "they can sign in", priority: storymap.PriorityHigh, effort: "2 days"},
				{title: "Edit a user profile", actor: "user", action: "edit my profile details", outcome: "my information stays current", priority: storymap.PriorityMedium, effort: "1 day"},
			},
		},
	},
	{
		words:       keyword.New("数据", "报表", "统计", "分析", "data", "report", "reports", "analytics", "statistics", "dashboard"),
		title:       "Data and Analytics",
		description: "Report on usage and business metrics",
		feature: featureSpec{
			title:       "Reporting",
			description: "Summaries and exports of key metrics",
			tasks: []taskSpec{
				{title: "View the usage dashboard", actor: "manager", action: "view daily usage charts", outcome: "I can track trends", priority: storymap.PriorityMedium, effort: "3 days"},
				{title: "Export a report", actor: "manager", action: "export a report as CSV", outcome: "I can share it offline", priority: storymap.PriorityLow, effort: "1 day"},
			},
		},
	},
	{
		words:       keyword.New("通知", "消息", "提醒", "推送", "notification", "notifications", "notify", "message", "messages", "alert", "alerts", "reminder", "push"),
		title:       "Notifications",
		description: "Keep users informed about important events",
		feature: featureSpec{
			title:       "Notification Delivery",
			description: "Deliver and configure notifications",
			tasks: []taskSpec{
				{title: "Receive a push notification", actor: "user", action: "receive a push notification when an event affects me", outcome: "I can react in time", priority: storymap.PriorityHigh, effort: "2 days", reqs: []storymap.SupportingRequirement{
					{Title: "Push notification service", Description: "Deliver push messages to mobile and web clients", Type: storymap.RequirementServiceIntegration, Priority: storymap.PriorityHigh},
				}},
				{title: "Manage notification preferences", actor: "user", action: "choose which notifications I receive", outcome: "I am not overwhelmed", priority: storymap.PriorityMedium, effort: "1 day"},
			},
		},
	},
	{
		title:       "New Module",
		description: "Module added from feedback",
		feature: featureSpec{
			title:       "Core Functionality",
			description: "The main capability of the new module",
			tasks: []taskSpec{
				{title: "Define the core workflow", actor: "user", action: "complete the module's main workflow", outcome: "the module delivers value", priority: storymap.PriorityHigh, effort: "3 days"},
				{title: "Review the module output", actor: "user", action: "review the results of the workflow", outcome: "I can confirm they are correct", priority: storymap.PriorityMedium, effort: "2 days"},
			},
		},
	},
}

func selectModule(folded string) moduleSpec {
	for _, m := range addModules {
		if m.words.Empty() || m.words.Match(folded) {
			return m
		}
	}
	return addModules[len(addModules)-1]
}

// category is one kind of content the complete heuristic can supply.
type category struct {
	name   string
	words  keyword.Set
	marker string
	add    featureSpec
}

const categoryUserStories = "user-stories"

var (
	userStoryTask = taskSpec{title: "Complete the activity", actor: "user", action: "finish this activity end to end", outcome: "I reach my goal", priority: storymap.PriorityMedium, effort: "2 days"}

	// categories is ordered; the complete heuristic walks it top-down.
	categories = []category{
		{
			name:   "activities",
			words:  keyword.New("活动", "用户活动", "activity", "activities"),
			marker: "activities",
			add: featureSpec{
				title:       "Additional Activities",
				description: "Activities added to complete the journey",
				tasks: []taskSpec{
					{title: "Follow up after the main activity", actor: "user", action: "see what to do next after finishing", outcome: "the journey does not stop abruptly", priority: storymap.PriorityMedium, effort: "2 days"},
					{title: "Resume an interrupted activity", actor: "user", action: "resume where I left off", outcome: "no progress is lost", priority: storymap.PriorityLow, effort: "2 days"},
				},
			},
		},
		{
			name:   "touchpoints",
			words:  keyword.New("触点", "接触点", "touchpoint", "touchpoints", "touch point", "touch points"),
			marker: "touchpoint",
			add: featureSpec{
				title:       "Touchpoints",
				description: "Channels through which users reach the product",
				tasks: []taskSpec{
					{title: "Access the journey from every channel", actor: "user", action: "start the journey on web or mobile", outcome: "I can use whichever device is at hand", priority: storymap.PriorityMedium, effort: "3 days"},
				},
			},
		},
		{
			name:   categoryUserStories,
			words:  keyword.New("用户故事", "故事", "user story", "user stories", "story", "stories"),
			marker: "user stories",
			add: featureSpec{
				title:       "Additional User Stories",
				description: "User stories added to complete the map",
				tasks: []taskSpec{
					{title: "Review my history", actor: "user", action: "review my past activity", outcome: "I can keep track of what I did", priority: storymap.PriorityMedium, effort: "2 days"},
					{title: "Get help when stuck", actor: "user", action: "open contextual help", outcome: "I can finish without contacting support", priority: storymap.PriorityLow, effort: "1 day"},
				},
			},
		},
		{
			name:   "supporting-needs",
			words:  keyword.New("支撑性需求", "支撑需求", "支持性需求", "技术需求", "supporting need", "supporting needs", "supporting requirement", "supporting requirements", "technical requirement", "technical requirements"),
			marker: "supporting",
			add: featureSpec{
				title:       "Supporting Capabilities",
				description: "Technical capabilities the user stories depend on",
				tasks: []taskSpec{
					{title: "Secure sign-in", actor: "user", action: "sign in securely", outcome: "my data is protected", priority: storymap.PriorityHigh, effort: "3 days", reqs: []storymap.SupportingRequirement{
						{Title: "Identity provider", Description: "OAuth2 / OIDC sign-in", Type: storymap.RequirementServiceIntegration, Priority: storymap.PriorityHigh},
						{Title: "Data protection", Description: "Encryption at rest and in transit", Type: storymap.RequirementSecurityCompliance, Priority: storymap.PriorityHigh},
					}},
					{title: "Fast page loads", actor: "user", action: "open any page quickly", outcome: "I do not abandon the product", priority: storymap.PriorityMedium, effort: "2 days", reqs: []storymap.SupportingRequirement{
						{Title: "Response time budget", Description: "95th percentile below 300 ms", Type: storymap.RequirementPerformanceRequirement, Priority: storymap.PriorityMedium},
					}},
				},
			},
		},
	}
)
