package prompts

// Demo is a canned request offered as a quick example.
type Demo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuickExampleCount is how many demos the UI shows as buttons.
const QuickExampleCount = 5

// Demos is the full list of example requests.
var Demos = []Demo{
	{"Todo App", "Create a simple todo application with add, delete, and mark as complete functionality"},
	{"Calculator", "Build a basic calculator with addition, subtraction, multiplication, and division"},
	{"Chat Interface", "Build a chat interface with message history and user input"},
	{"E-commerce Product Card", "Create a product card component for an e-commerce website"},
	{"Login Form", "Build a responsive login form with validation"},
	{"Dashboard Layout", "Create a dashboard layout with sidebar navigation and main content area"},
	{"Data Table", "Build a data table with sorting and filtering capabilities"},
	{"Image Gallery", "Create an image gallery with lightbox functionality and responsive grid layout"},
	{"UI from Image", "Upload an image of a UI design and I'll generate the HTML/CSS code for it"},
	{"Extract Text from Image", "Upload an image containing text and I'll extract and process the text content"},
	{"Website Redesign", "Enter a website URL to extract its content and redesign it with a modern, responsive layout"},
	{"Modify HTML", "After generating HTML, ask me to modify it with specific changes using search/replace format"},
	{"Search/Replace Example", "Generate HTML first, then ask: 'Change the title to My New Title' or 'Add a blue background to the body'"},
	{"Transformers.js App", "Create a transformers.js application with AI/ML functionality using the transformers.js library"},
	{"Svelte App", "Create a modern Svelte application with TypeScript, Vite, and responsive design"},
}

// QuickExamples returns the demos shown as buttons.
func QuickExamples() []Demo {
	return Demos[:QuickExampleCount]
}
