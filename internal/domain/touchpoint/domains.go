package touchpoint

import "github.com/Strob0t/StoryForge/internal/domain/keyword"

type domainRule struct {
	name        string
	words       keyword.Set
	pages       []rule
	defaultPage string
}

func page(value string, words ...string) rule {
	return rule{words: keyword.New(words...), value: value}
}

// domains is evaluated top-down; the first domain whose keywords occur wins.
// Within a domain the page table is ordered the same way.
var domains = []domainRule{
	{
		name:  "Smart Door Lock",
		words: keyword.New("门锁", "智能锁", "door lock", "smart lock", "lock", "locks"),
		pages: []rule{
			page("Remote Unlock", "开锁", "解锁", "远程开门", "unlock", "open the door"),
			page("Passcode Management", "临时密码", "密码", "password", "passcode", "pin"),
			page("Fingerprint Enrollment", "指纹", "fingerprint"),
			page("Access History", "开锁记录", "记录", "日志", "history", "log", "logs", "records"),
			{words: keyword.New("配对", "绑定", "pair", "pairing", "bind"), except: keyword.New("解绑", "解除绑定", "unbind", "unpair"), value: "Device Pairing"},
			page("Battery Status", "电量", "电池", "battery"),
		},
		defaultPage: "Lock Overview",
	},
	{
		name:  "Charging Station",
		words: keyword.New("充电桩", "充电站", "充电", "charging", "charger", "chargers", "ev"),
		pages: []rule{
			page("Firmware Upgrade", "固件", "升级", "firmware", "upgrade", "ota"),
			{words: keyword.New("配对", "绑定", "pair", "pairing", "bind", "binding"), except: keyword.New("解绑", "解除绑定", "unbind", "unbinding", "unpair"), value: "Device Pairing"},
			page("Device Unbinding", "解绑", "解除绑定", "unbind", "unbinding", "unpair"),
			page("Status Monitor", "状态", "实时", "监控", "status", "monitor", "monitoring", "real-time", "realtime"),
			page("Charging History", "充电记录", "历史", "记录", "history", "records", "log"),
			page("Charger Configuration", "配置", "参数", "设置", "configure", "configuration", "settings", "parameters"),
			page("Access Permissions", "权限", "授权", "共享", "permission", "permissions", "authorize", "share", "sharing"),
			page("Notifications", "通知", "提醒", "告警", "notification", "notifications", "alert", "alerts"),
			page("Usage Analytics", "统计", "分析", "报表", "analytics", "statistics", "report", "reports"),
			page("Charging Control", "启动", "停止", "开始充电", "结束充电", "预约", "start", "stop", "schedule"),
			page("Billing", "计费", "费用", "支付", "账单", "billing", "bill", "fee", "fees", "payment", "pay"),
		},
		defaultPage: "Charging Station Overview",
	},
	{
		name:  "Car Rental",
		words: keyword.New("租车", "汽车租赁", "car rental", "rent a car", "rental car", "car hire", "rental"),
		pages: []rule{
			page("Vehicle Search", "搜索", "查找", "选车", "search", "find", "browse"),
			page("Booking", "预订", "预约", "下单", "book", "booking", "reserve", "reservation"),
			page("Vehicle Pickup", "取车", "pick up", "pickup"),
			page("Vehicle Return", "还车", "return"),
			page("Payment", "支付", "押金", "付款", "pay", "payment", "deposit"),
		},
		defaultPage: "Rental Overview",
	},
	{
		name:  "E-commerce",
		words: keyword.New("电商", "商城", "购物", "商品", "订单", "e-commerce", "ecommerce", "shop", "shopping", "product", "products", "cart", "checkout", "order", "orders"),
		pages: []rule{
			page("Shopping Cart", "购物车", "cart", "basket"),
			page("Checkout", "结算", "下单", "支付", "checkout", "pay", "payment"),
			page("Order Tracking", "订单", "物流", "order", "orders", "tracking", "shipment"),
			page("Product Detail", "商品详情", "详情", "detail", "details"),
			page("Product Search", "搜索", "search", "browse"),
		},
		defaultPage: "Storefront",
	},
	{
		name:  "Social",
		words: keyword.New("社交", "好友", "朋友圈", "动态", "social", "friend", "friends", "follow", "feed", "post", "posts"),
		pages: []rule{
			page("Profile", "个人资料", "主页", "profile"),
			page("Friends", "好友", "关注", "friend", "friends", "follow"),
			page("Feed", "动态", "朋友圈", "feed", "post", "posts", "timeline"),
			page("Chat", "聊天", "私信", "chat", "message", "messages"),
		},
		defaultPage: "Social Home",
	},
	{
		name:  "Task Management",
		words: keyword.New("任务", "待办", "看板", "项目", "task", "tasks", "todo", "to-do", "kanban", "project"),
		pages: []rule{
			page("Task Board", "看板", "kanban", "board"),
			page("Task Assignment", "分配", "指派", "assign", "assignment"),
			page("Task Editor", "创建", "新建", "create", "new"),
		},
		defaultPage: "Task List",
	},
	{
		name:  "Account",
		words: keyword.New("登录", "注册", "密码", "验证码", "认证", "login", "log in", "sign in", "signin", "register", "sign up", "signup", "password", "verify", "verification", "authentication"),
		pages: []rule{
			page("Registration", "注册", "register", "sign up", "signup"),
			page("Password Reset", "重置", "找回", "忘记密码", "reset", "forgot"),
			page("Login", "登录", "login", "log in", "sign in", "signin"),
			page("Verification", "验证", "验证码", "verify", "verification", "otp"),
		},
		defaultPage: "Login",
	},
	{
		name:  "Payment",
		words: keyword.New("支付", "付款", "收款", "账单", "退款", "payment", "payments", "pay", "billing", "invoice", "wallet", "refund"),
		pages: []rule{
			page("Refund", "退款", "refund"),
			page("Payment History", "账单", "记录", "history", "invoice", "invoices"),
			page("Payment Methods", "支付方式", "银行卡", "card", "cards", "wallet", "method", "methods"),
		},
		defaultPage: "Payment",
	},
	{
		name:  "Notifications",
		words: keyword.New("通知", "消息", "提醒", "推送", "notification", "notifications", "message", "messages", "alert", "alerts", "push", "reminder"),
		pages: []rule{
			page("Notification Settings", "设置", "偏好", "preference", "preferences", "settings"),
		},
		defaultPage: "Notification Center",
	},
	{
		name:  "Settings",
		words: keyword.New("设置", "配置", "偏好", "settings", "setting", "preferences", "configure", "configuration"),
		pages: []rule{
			page("Account Settings", "个人", "账号", "profile", "account"),
		},
		defaultPage: "Settings",
	},
}
