package bot

// Default signal lists; the keyword list can be overridden via engine config.
var (
	defaultKeywords = []string{
		"bot",
		"crawler",
		"spider",
		"curl",
		"wget",
		"scrapy",
		"python-requests",
	}

	headlessSignatures = []string{
		"headless",
		"phantom",
		"selenium",
		"puppeteer",
		"playwright",
	}

	browserMarkers = []string{
		"mozilla",
		"chrome",
		"safari",
		"firefox",
		"edge",
	}

	requiredHeaders = []string{
		"accept",
		"accept-language",
	}
)
