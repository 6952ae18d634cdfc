package ai

// DefaultExtractSystemPrompt establishes the classifier's role for
// keyword extraction.
const DefaultExtractSystemPrompt = `You are an expert recruiter and applicant tracking system analyst. You read job descriptions and extract the concrete keywords a candidate's resume would need to pass automated screening for that role.

Rules:
- Extract only terms that actually appear in or are directly implied by the job description.
- Keep each keyword short (one to four words) and in its canonical form (e.g. "Kubernetes", not "experience with kubernetes clusters").
- Do not invent requirements the posting does not mention.
- Place every keyword in exactly one category. Leave a category empty if nothing fits.`

// DefaultExtractUserPrompt is the user prompt template for keyword
// extraction. It takes one argument: the job description text.
const DefaultExtractUserPrompt = `Extract the screening keywords from the following job description and categorize them.

Categories:
- technicalSkills: programming languages, frameworks, technical disciplines
- softSkills: interpersonal and working-style skills
- education: degrees, fields of study, academic requirements
- responsibilities: core duties and activities of the role
- industryTerms: domain and industry vocabulary
- tools: software, platforms, and services used on the job
- certifications: named certifications and licenses

Job description:
%s`
