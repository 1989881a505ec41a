package main

// Page copy lives here so the route handlers stay readable.

type Job struct {
	Title   string
	Company string
	Start   string
	End     string
	Logo    string
	Bullets []string
}

type School struct {
	Degree      string
	Institution string
	Start       string
	End         string
	Logo        string
	Bullets     []string
}

type Project struct {
	Name        string
	Description string
	Link        string
	Tags        []string
}

var heroTagline = "Software developer building small, reliable tools for the web."

var aboutMe = `I like building software that's useful first and clever second.
Most of my projects start as an itch to automate something and end up teaching
me a new corner of the stack. Away from the keyboard I'm usually climbing,
cooking, or halfway through three books at once.`

var jobs = []Job{
	{
		Title:   "Backend Developer",
		Company: "Harbor Analytics",
		Start:   "Mar 2023",
		End:     "Present",
		Logo:    "images/harbor-logo.png",
		Bullets: []string{
			"Built and operate a Go ingestion service handling a few million events a day",
			"Cut median report latency by moving aggregation from cron jobs to incremental updates",
			"Introduced structured logging and alerting, halving time-to-diagnose for production issues",
		},
	},
	{
		Title:   "Support Engineer",
		Company: "Brightline Systems",
		Start:   "Jun 2020",
		End:     "Feb 2023",
		Logo:    "images/brightline-logo.png",
		Bullets: []string{
			"Triaged and reproduced customer-reported bugs across a legacy PHP/Go stack",
			"Wrote internal CLI tools that automated the most common support runbooks",
			"Maintained the knowledge base and onboarded three new hires onto the support rotation",
		},
	},
}

var education = []School{
	{
		Degree:      "B.S. Computer Science",
		Institution: "Portland State University",
		Start:       "Sept 2016",
		End:         "June 2020",
		Logo:        "images/psu-logo.png",
		Bullets: []string{
			"Focus on distributed systems and databases",
			"Senior capstone: collaborative note-taking app with CRDT sync",
		},
	},
}

var skills = []string{
	"Go", "SQL", "Linux", "Docker", "HTMX", "PostgreSQL", "SQLite", "Git",
}

var projects = []Project{
	{
		Name: "shelfsort",
		Description: `A CLI that organizes ebook libraries by reading embedded metadata,
deduplicating copies, and filing everything into a consistent folder layout.`,
		Link: "https://github.com/calebmartin/shelfsort",
		Tags: []string{"Go", "CLI"},
	},
	{
		Name: "pondcam",
		Description: `A Raspberry Pi timelapse rig for the backyard pond: motion-triggered
captures, nightly encodes, and a tiny web gallery served straight from the Pi.`,
		Link: "https://github.com/calebmartin/pondcam",
		Tags: []string{"Go", "Raspberry Pi"},
	},
	{
		Name: "this site",
		Description: `This portfolio: Go and Gin with HTMX fragments, a contact form with
honeypot and CSRF protection, and a privacy-conscious visitor counter in SQLite.`,
		Link: "https://github.com/calebmartin/portfolio",
		Tags: []string{"Go", "Gin", "HTMX"},
	},
}
